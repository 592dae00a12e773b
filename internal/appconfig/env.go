package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvServiceAPIKey   = "SERVICE_API_KEY"
	EnvProviderMapping = "AIO_EVENTS_PROVIDERMETADATA_TO_PROVIDER_MAPPING"

	legacyProviderMapping = "AIO_events_providermetadata_to_provider_mapping"
)

// HookEnv is the environment a deploy hook reads, once, before any remote
// call.
type HookEnv struct {
	ServiceAPIKey   string `env:"SERVICE_API_KEY"`
	ProviderMapping string `env:"AIO_EVENTS_PROVIDERMETADATA_TO_PROVIDER_MAPPING"`
}

// LoadHookEnv merges the process environment with the dotenv file at
// dotenvPath. Process values win. A missing dotenv file is only an error when
// required is set.
func LoadHookEnv(environ []string, dotenvPath string, required bool) (HookEnv, error) {
	values := map[string]string{}
	if strings.TrimSpace(dotenvPath) != "" {
		fileValues, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			for key, value := range fileValues {
				values[key] = value
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return HookEnv{}, fmt.Errorf("read env file %s: %w", dotenvPath, err)
		}
	}
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = value
	}
	if _, ok := values[EnvProviderMapping]; !ok {
		if legacy, ok := values[legacyProviderMapping]; ok {
			values[EnvProviderMapping] = legacy
		}
	}

	var hookEnv HookEnv
	if err := env.ParseWithOptions(&hookEnv, env.Options{Environment: values}); err != nil {
		return HookEnv{}, fmt.Errorf("parse hook environment: %w", err)
	}
	return hookEnv, nil
}
