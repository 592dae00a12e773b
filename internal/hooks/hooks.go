// Package hooks adapts the registration reconciler to the app deploy
// lifecycle: pre-deploy, post-deploy, pre-undeploy and pre-pack.
package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bilalbayram/eventscli/internal/appconfig"
	"github.com/bilalbayram/eventscli/internal/events"
	"github.com/bilalbayram/eventscli/internal/registration"
)

const (
	PreDeployName   = "pre-deploy"
	PostDeployName  = "post-deploy"
	PreUndeployName = "pre-undeploy"
	PrePackName     = "pre-pack"
)

var (
	ErrNoProject            = errors.New("no project found")
	ErrMissingRuntimeAction = errors.New("all event registrations need to be associated with a runtime action")
)

// RegistrationValidator checks declared registrations against the service
// without creating them.
type RegistrationValidator interface {
	Validate(ctx context.Context, creds events.Credentials, scope events.Scope, registrations []map[string]any) error
}

// Outcome is what a hook did. Result is nil when the hook skipped. Summary
// counts Result's actions by kind.
type Outcome struct {
	Hook      string               `json:"hook"`
	Skipped   bool                 `json:"skipped"`
	Reason    string               `json:"reason,omitempty"`
	Result    *registration.Result `json:"result,omitempty"`
	Summary   map[string]int       `json:"summary,omitempty"`
	Validated []string             `json:"validated,omitempty"`
}

func skipped(hook string, reason string) *Outcome {
	return &Outcome{Hook: hook, Skipped: true, Reason: reason}
}

func reconciled(hook string, result *registration.Result) *Outcome {
	outcome := &Outcome{Hook: hook, Result: result}
	if result == nil {
		return outcome
	}
	outcome.Summary = map[string]int{}
	for _, action := range []string{registration.ActionCreated, registration.ActionUpdated, registration.ActionDeleted, registration.ActionSkipped} {
		if count := result.Count(action); count > 0 {
			outcome.Summary[action] = count
		}
	}
	return outcome
}

// Runner holds the inputs every hook shares. Env is read once by the caller
// and never re-read during a pass.
type Runner struct {
	Env       appconfig.HookEnv
	Tokens    registration.TokenSource
	Directory registration.DirectoryFactory
	Validator RegistrationValidator
	Policy    registration.ErrorPolicy
	Logger    *zap.Logger
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) reconciler() *registration.Reconciler {
	return &registration.Reconciler{
		Resolver: &registration.Resolver{
			APIKey:     r.Env.ServiceAPIKey,
			MappingRaw: r.Env.ProviderMapping,
			Tokens:     r.Tokens,
		},
		Directory: r.Directory,
		Policy:    r.Policy,
		Logger:    r.logger(),
	}
}

// PreDeploy creates or updates journal registrations so they exist before
// the app's actions do. It never deletes.
func (r *Runner) PreDeploy(ctx context.Context, app *appconfig.App) (*Outcome, error) {
	if app == nil || app.Project == nil {
		return nil, fmt.Errorf("%w, skipping event registration in pre-app-deploy hook", ErrNoProject)
	}
	if !app.HasEvents() {
		return skipped(PreDeployName, "no event registrations declared"), nil
	}
	result, err := r.reconciler().Reconcile(ctx, registration.Plan{
		Project: app.Project.Registration(),
		Desired: app.Registrations(),
		Filter:  registration.Journal,
	})
	return reconciled(PreDeployName, result), err
}

// PostDeploy creates or updates webhook registrations once their runtime
// actions are live. With force, webhook registrations no longer declared are
// deleted.
func (r *Runner) PostDeploy(ctx context.Context, app *appconfig.App, force bool) (*Outcome, error) {
	if app == nil || app.Project == nil {
		return skipped(PostDeployName, "no project found"), nil
	}
	if !app.HasEvents() {
		return skipped(PostDeployName, "no event registrations declared"), nil
	}
	result, err := r.reconciler().Reconcile(ctx, registration.Plan{
		Project: app.Project.Registration(),
		Desired: app.Registrations(),
		Filter:  registration.Webhook,
		Prune:   force,
	})
	return reconciled(PostDeployName, result), err
}

// PreUndeploy deletes every declared registration that exists remotely.
func (r *Runner) PreUndeploy(ctx context.Context, app *appconfig.App) (*Outcome, error) {
	if app == nil || app.Project == nil {
		return nil, fmt.Errorf("%w, skipping event registration in pre-undeploy hook", ErrNoProject)
	}
	if !app.HasEvents() {
		return skipped(PreUndeployName, "no event registrations declared"), nil
	}
	result, err := r.reconciler().Teardown(ctx, app.Project.Registration(), app.Registrations())
	return reconciled(PreUndeployName, result), err
}

// PrePack checks that every registration targets a non-web action of the
// runtime manifest, then asks the service to validate the declarations.
func (r *Runner) PrePack(ctx context.Context, app *appconfig.App) (*Outcome, error) {
	if !app.HasEvents() {
		return skipped(PrePackName, "no event registrations to verify"), nil
	}
	if app.Project == nil {
		return nil, fmt.Errorf("%w, error in pre-pack events validation hook", ErrNoProject)
	}

	desired := app.Registrations()
	for _, item := range desired {
		if strings.TrimSpace(item.RuntimeAction) == "" {
			return nil, fmt.Errorf("invalid event registration %q: %w", item.Name, ErrMissingRuntimeAction)
		}
	}
	manifest := app.Manifest()
	for _, item := range desired {
		if err := manifest.CheckEventAction(item.RuntimeAction); err != nil {
			return nil, err
		}
	}
	r.logger().Info("validated runtime actions associated with event registrations")

	project := app.Project.Registration()
	scope := project.Scope()
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", registration.ErrIncompleteProject, err)
	}
	apiKey := strings.TrimSpace(r.Env.ServiceAPIKey)
	if apiKey == "" {
		return nil, registration.ErrMissingAPIKey
	}
	if r.Tokens == nil {
		return nil, errors.New("access token source is not configured")
	}
	if r.Validator == nil {
		return nil, errors.New("registration validator is not configured")
	}
	token, err := r.Tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire access token: %w", err)
	}

	body, err := validationBody(desired)
	if err != nil {
		return nil, err
	}
	creds := events.Credentials{AccessToken: token, APIKey: apiKey, OrgCode: project.OrgCode}
	if err := r.Validator.Validate(ctx, creds, scope, body); err != nil {
		return nil, fmt.Errorf("validate event registrations: %w", err)
	}
	r.logger().Info("event registrations successfully validated", zap.Int("count", len(desired)))

	names := make([]string, 0, len(desired))
	for _, item := range desired {
		names = append(names, item.Name)
	}
	return &Outcome{Hook: PrePackName, Validated: names}, nil
}

// validationBody sends the declarations in their compact config form.
func validationBody(desired []registration.Desired) ([]map[string]any, error) {
	body := make([]map[string]any, 0, len(desired))
	for _, item := range desired {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode registration %q: %w", item.Name, err)
		}
		decoded := map[string]any{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("encode registration %q: %w", item.Name, err)
		}
		body = append(body, decoded)
	}
	return body, nil
}
