package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bilalbayram/eventscli/internal/auth"
	"github.com/bilalbayram/eventscli/internal/config"
	"github.com/bilalbayram/eventscli/internal/events"
)

const tokenMinTTL = time.Minute

var (
	configPath     = config.DefaultPath
	newSecretStore = func() auth.SecretStore {
		return auth.NewKeychainStore()
	}
	newEventsClient = func(baseURL string, logger *zap.Logger) *events.Client {
		client := events.NewClient(nil, baseURL)
		client.Logger = logger
		return client
	}
	getenv = os.Getenv
)

// ProfileCredentials is a resolved profile with a usable access token.
type ProfileCredentials struct {
	Name    string
	Profile config.Profile
	Token   string
}

func (c *ProfileCredentials) Credentials() events.Credentials {
	return events.Credentials{
		AccessToken: c.Token,
		APIKey:      c.Profile.ClientID,
		OrgCode:     c.Profile.OrgCode,
	}
}

// Scope fails when the profile has no project and workspace selected.
func (c *ProfileCredentials) Scope() (events.Scope, error) {
	if !c.Profile.HasWorkspace() {
		return events.Scope{}, fmt.Errorf("profile %q has no project/workspace selected; run `events profile set --project-id --workspace-id`", c.Name)
	}
	return events.Scope{
		OrgID:       c.Profile.OrgID,
		ProjectID:   c.Profile.ProjectID,
		WorkspaceID: c.Profile.WorkspaceID,
	}, nil
}

// Client logs requests and retries to logger at debug level.
func (c *ProfileCredentials) Client(logger *zap.Logger) *events.Client {
	return newEventsClient(c.Profile.BaseURL, logger)
}

func resolveProfile(profile string) (string, config.Profile, error) {
	path, err := configPath()
	if err != nil {
		return "", config.Profile{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return "", config.Profile{}, err
	}
	return cfg.ResolveProfile(profile)
}

func loadProfileCredentials(ctx context.Context, profile string) (*ProfileCredentials, error) {
	name, selected, err := resolveProfile(profile)
	if err != nil {
		return nil, err
	}

	source := profileTokenSource(name, selected)
	token, err := source.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access token for profile %q: %w", name, err)
	}
	return &ProfileCredentials{
		Name:    name,
		Profile: selected,
		Token:   token,
	}, nil
}

func profileTokenSource(name string, profile config.Profile) *auth.KeychainTokenSource {
	ref := profile.TokenRef
	if strings.TrimSpace(ref) == "" {
		if derived, err := auth.SecretRef(name, auth.SecretToken); err == nil {
			ref = derived
		}
	}
	return &auth.KeychainTokenSource{
		Store:  newSecretStore(),
		Ref:    ref,
		Getenv: getenv,
		MinTTL: tokenMinTTL,
	}
}

// envTokenSource serves hooks run without a stored profile.
func envTokenSource(ctx context.Context) (string, error) {
	token := strings.TrimSpace(getenv(auth.EnvAccessToken))
	if token == "" {
		return "", errors.New("no profile configured and " + auth.EnvAccessToken + " is not set; run `events auth login`")
	}
	if err := auth.CheckTokenExpiry(token, time.Now().UTC(), tokenMinTTL); err != nil {
		return "", err
	}
	return token, nil
}
