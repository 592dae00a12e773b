package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bilalbayram/eventscli/internal/auth"
	"github.com/bilalbayram/eventscli/internal/config"
)

var authNow = time.Now

func NewAuthCommand(runtime Runtime) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Store, inspect and remove profile access tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return requireSubcommand(cmd, "auth")
		},
	}
	authCmd.AddCommand(newAuthLoginCommand(runtime))
	authCmd.AddCommand(newAuthStatusCommand(runtime))
	authCmd.AddCommand(newAuthLogoutCommand(runtime))
	return authCmd
}

func newAuthLoginCommand(runtime Runtime) *cobra.Command {
	var (
		token      string
		tokenStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token for the profile in the OS keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const commandName = "events auth login"
			if tokenStdin {
				read, err := readTokenFrom(cmd.InOrStdin())
				if err != nil {
					return writeCommandError(cmd, runtime, commandName, invalidInput(err))
				}
				token = read
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return writeCommandError(cmd, runtime, commandName, invalidInput(errors.New("--token or --token-stdin is required")))
			}
			if err := auth.CheckTokenExpiry(token, authNow().UTC(), 0); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}

			path, err := configPath()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			name, profile, err := cfg.ResolveProfile(runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}

			ref, err := auth.SecretRef(name, auth.SecretToken)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			if err := newSecretStore().Set(ref, token); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			if profile.TokenRef != ref {
				profile.TokenRef = ref
				if err := cfg.UpsertProfile(name, profile); err != nil {
					return writeCommandError(cmd, runtime, commandName, err)
				}
				if err := config.Save(path, cfg); err != nil {
					return writeCommandError(cmd, runtime, commandName, err)
				}
			}

			data := map[string]any{
				"status":    "ok",
				"profile":   name,
				"token_ref": ref,
			}
			if info, err := auth.InspectToken(token); err == nil {
				if !info.ExpiresAt.IsZero() {
					data["expires_at"] = info.ExpiresAt.Format(time.RFC3339)
				}
				if info.ClientID != "" {
					data["token_client_id"] = info.ClientID
				}
			}
			return writeSuccess(cmd, runtime, commandName, data, nil)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.Flags().BoolVar(&tokenStdin, "token-stdin", false, "Read the access token from stdin")
	return cmd
}

func newAuthStatusCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the profile has a usable access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const commandName = "events auth status"
			name, profile, err := resolveProfile(runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			source := profileTokenSource(name, profile)
			source.Now = authNow
			token, err := source.AccessToken(cmd.Context())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}

			data := map[string]any{
				"profile":   name,
				"client_id": profile.ClientID,
				"valid":     true,
			}
			info, err := auth.InspectToken(token)
			switch {
			case errors.Is(err, auth.ErrOpaqueToken):
				data["token_type"] = "opaque"
			case err != nil:
				return writeCommandError(cmd, runtime, commandName, err)
			default:
				data["token_type"] = "jwt"
				if !info.ExpiresAt.IsZero() {
					data["expires_at"] = info.ExpiresAt.Format(time.RFC3339)
					data["expires_in"] = info.ExpiresAt.Sub(authNow().UTC()).Round(time.Second).String()
				}
				if info.ClientID != "" {
					data["token_client_id"] = info.ClientID
				}
			}
			if strings.TrimSpace(getenv(auth.EnvAccessToken)) != "" {
				data["source"] = "env"
			} else {
				data["source"] = "keychain"
			}
			return writeSuccess(cmd, runtime, commandName, data, nil)
		},
	}
}

func newAuthLogoutCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the profile access token from the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const commandName = "events auth logout"
			name, profile, err := resolveProfile(runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			ref := profile.TokenRef
			if ref == "" {
				ref, err = auth.SecretRef(name, auth.SecretToken)
				if err != nil {
					return writeCommandError(cmd, runtime, commandName, err)
				}
			}
			if err := newSecretStore().Delete(ref); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, map[string]any{
				"status":  "logged_out",
				"profile": name,
			}, nil)
		},
	}
}

func readTokenFrom(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read token from stdin: %w", err)
		}
		return "", errors.New("no token on stdin")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
