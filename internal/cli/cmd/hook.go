package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bilalbayram/eventscli/internal/appconfig"
	"github.com/bilalbayram/eventscli/internal/config"
	"github.com/bilalbayram/eventscli/internal/events"
	"github.com/bilalbayram/eventscli/internal/hooks"
	"github.com/bilalbayram/eventscli/internal/logging"
	"github.com/bilalbayram/eventscli/internal/registration"
)

var (
	hookEnviron        = os.Environ
	hookLoadAppConfig  = appconfig.Load
	hookResolveProfile = resolveProfile
)

type hookFlags struct {
	configPath      string
	envFile         string
	force           bool
	continueOnError bool
}

func (f *hookFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", appconfig.DefaultPath, "Path to app.config.yaml")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to the .env file (defaults to .env next to --config)")
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false, "Attempt every registration change and report all failures")
}

func (f *hookFlags) dotenvPath() (string, bool) {
	if f.envFile != "" {
		return f.envFile, true
	}
	return filepath.Join(filepath.Dir(f.configPath), ".env"), false
}

func NewHookCommand(runtime Runtime) *cobra.Command {
	hookCmd := &cobra.Command{
		Use:   "hook",
		Short: "Reconcile declared event registrations at app deploy lifecycle points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return requireSubcommand(cmd, "hook")
		},
	}

	hookCmd.AddCommand(newHookCommand(runtime, hooks.PreDeployName,
		"Create or update journal registrations before the app is deployed", false,
		func(ctx context.Context, runner *hooks.Runner, app *appconfig.App, _ *hookFlags) (*hooks.Outcome, error) {
			return runner.PreDeploy(ctx, app)
		}))
	hookCmd.AddCommand(newHookCommand(runtime, hooks.PostDeployName,
		"Create or update webhook registrations after the app is deployed", true,
		func(ctx context.Context, runner *hooks.Runner, app *appconfig.App, flags *hookFlags) (*hooks.Outcome, error) {
			return runner.PostDeploy(ctx, app, flags.force)
		}))
	hookCmd.AddCommand(newHookCommand(runtime, hooks.PreUndeployName,
		"Delete declared registrations before the app is undeployed", false,
		func(ctx context.Context, runner *hooks.Runner, app *appconfig.App, _ *hookFlags) (*hooks.Outcome, error) {
			return runner.PreUndeploy(ctx, app)
		}))
	hookCmd.AddCommand(newHookCommand(runtime, hooks.PrePackName,
		"Validate declared registrations against the runtime manifest and the service", false,
		func(ctx context.Context, runner *hooks.Runner, app *appconfig.App, _ *hookFlags) (*hooks.Outcome, error) {
			return runner.PrePack(ctx, app)
		}))
	return hookCmd
}

type hookFunc func(ctx context.Context, runner *hooks.Runner, app *appconfig.App, flags *hookFlags) (*hooks.Outcome, error)

func newHookCommand(runtime Runtime, name string, short string, prunes bool, run hookFunc) *cobra.Command {
	flags := &hookFlags{}

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			commandName := "events hook " + name
			app, err := hookLoadAppConfig(flags.configPath)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			dotenv, required := flags.dotenvPath()
			hookEnv, err := appconfig.LoadHookEnv(hookEnviron(), dotenv, required)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}

			runner, err := newHookRunner(runtime, cmd, hookEnv, flags)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			outcome, err := run(cmd.Context(), runner, app, flags)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, outcome, nil)
		},
	}

	flags.bind(cmd)
	if prunes {
		cmd.Flags().BoolVar(&flags.force, "force", false, "Delete webhook registrations that are no longer declared")
		cmd.Flags().BoolVar(&flags.force, "force-events-handler", false, "Alias of --force")
		_ = cmd.Flags().MarkHidden("force-events-handler")
	}
	return cmd
}

// newHookRunner binds the stored profile when one exists. Hooks also run in
// CI without a profile, relying on EVENTS_ACCESS_TOKEN.
func newHookRunner(runtime Runtime, cmd *cobra.Command, hookEnv appconfig.HookEnv, flags *hookFlags) (*hooks.Runner, error) {
	baseURL := ""
	var tokens registration.TokenSource = registration.TokenSourceFunc(envTokenSource)

	name, profile, err := hookResolveProfile(runtime.ProfileName())
	switch {
	case err == nil:
		baseURL = profile.BaseURL
		tokens = profileTokenSource(name, profile)
	case runtime.ProfileName() == "" && (errors.Is(err, os.ErrNotExist) || errors.Is(err, config.ErrNoDefaultProfile)):
	default:
		return nil, err
	}

	logger := logging.Hook("hook", cmd.ErrOrStderr(), runtime.DebugEnabled())
	client := newEventsClient(baseURL, logger)
	policy := registration.AbortOnError
	if flags.continueOnError {
		policy = registration.ContinueOnError
	}
	return &hooks.Runner{
		Env:       hookEnv,
		Tokens:    tokens,
		Directory: registration.NewRemoteDirectory(client),
		Validator: events.NewRegistrationService(client),
		Policy:    policy,
		Logger:    logger,
	}, nil
}
