package registration

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/bilalbayram/eventscli/internal/events"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionSkipped = "skipped"
)

// ErrorPolicy decides whether a pass stops at the first failed remote call.
type ErrorPolicy int

const (
	// AbortOnError leaves the remote set as a strict prefix of the intended
	// changes when a call fails.
	AbortOnError ErrorPolicy = iota
	// ContinueOnError attempts every change and reports all failures joined.
	ContinueOnError
)

// Plan is one reconciliation pass for one delivery kind.
type Plan struct {
	Project Project
	Desired []Desired
	Filter  DeliveryKind
	Prune   bool
}

type Action struct {
	Action         string `json:"action"`
	Name           string `json:"name"`
	RegistrationID string `json:"registration_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

type Result struct {
	Filter  string   `json:"filter,omitempty"`
	Actions []Action `json:"actions"`
	Failed  []string `json:"failed,omitempty"`
}

func (r *Result) record(action Action) {
	r.Actions = append(r.Actions, action)
}

// Count returns how many actions of the given kind the pass performed.
func (r *Result) Count(action string) int {
	total := 0
	for _, item := range r.Actions {
		if item.Action == action {
			total++
		}
	}
	return total
}

type Reconciler struct {
	Resolver  *Resolver
	Directory DirectoryFactory
	Policy    ErrorPolicy
	Logger    *zap.Logger
}

func (r *Reconciler) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Reconciler) open(ctx context.Context, project Project) (*Identity, Directory, error) {
	if r.Resolver == nil {
		return nil, nil, errors.New("reconciler resolver is required")
	}
	if r.Directory == nil {
		return nil, nil, errors.New("reconciler directory is required")
	}
	identity, err := r.Resolver.Resolve(ctx, project)
	if err != nil {
		return nil, nil, err
	}
	return identity, r.Directory(*identity), nil
}

// Reconcile drives the remote registrations of plan.Filter's kind toward the
// declared set. Registrations of other kinds are never touched.
func (r *Reconciler) Reconcile(ctx context.Context, plan Plan) (*Result, error) {
	desiredNames, err := Names(plan.Desired)
	if err != nil {
		return nil, err
	}
	identity, directory, err := r.open(ctx, plan.Project)
	if err != nil {
		return nil, err
	}
	scope := plan.Project.Scope()
	log := r.logger().With(
		zap.String("workspace_id", scope.WorkspaceID),
		zap.String("delivery_type", plan.Filter.String()),
	)

	existing, err := directory.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list registrations for workspace %s: %w", scope.WorkspaceID, err)
	}

	result := &Result{Filter: plan.Filter.String(), Actions: []Action{}}
	var errs []error
	fail := func(name string, err error) error {
		result.Failed = append(result.Failed, name)
		if r.Policy == AbortOnError {
			return err
		}
		errs = append(errs, err)
		return nil
	}

	for _, desired := range plan.Desired {
		kind := Classify(desired)
		if !kind.IsKnown() {
			log.Warn("registration has an unrecognized delivery_type and is not reconciled by this hook",
				zap.String("name", desired.Name),
				zap.String("declared_delivery_type", kind.String()),
			)
		}
		if kind != plan.Filter {
			continue
		}

		input, err := BuildInput(desired, identity.ClientID, identity.Mapping)
		if err != nil {
			if stop := fail(desired.Name, err); stop != nil {
				return result, stop
			}
			continue
		}

		remote, exists := existing[desired.Name]
		if exists {
			log.Info("updating registration", zap.String("name", desired.Name), zap.String("registration_id", remote.RegistrationID))
			if _, err := directory.Update(ctx, scope, remote.RegistrationID, input); err != nil {
				opErr := &OperationError{Op: "update", Name: desired.Name, RegistrationID: remote.RegistrationID, Err: err}
				if stop := fail(desired.Name, opErr); stop != nil {
					return result, stop
				}
				continue
			}
			result.record(Action{Action: ActionUpdated, Name: desired.Name, RegistrationID: remote.RegistrationID})
			continue
		}

		log.Info("creating registration", zap.String("name", desired.Name))
		created, err := directory.Create(ctx, scope, input)
		if err != nil {
			opErr := &OperationError{Op: "create", Name: desired.Name, Err: err}
			if stop := fail(desired.Name, opErr); stop != nil {
				return result, stop
			}
			continue
		}
		action := Action{Action: ActionCreated, Name: desired.Name}
		if created != nil {
			action.RegistrationID = created.RegistrationID
		}
		result.record(action)
	}

	if plan.Prune {
		declared := make(map[string]struct{}, len(desiredNames))
		for _, name := range desiredNames {
			declared[name] = struct{}{}
		}
		for _, name := range sortedNames(existing) {
			if _, ok := declared[name]; ok {
				continue
			}
			remote := existing[name]
			if classifyRemote(remote) != plan.Filter {
				continue
			}
			log.Info("deleting undeclared registration", zap.String("name", name), zap.String("registration_id", remote.RegistrationID))
			if err := directory.Delete(ctx, scope, remote.RegistrationID); err != nil {
				opErr := &OperationError{Op: "delete", Name: name, RegistrationID: remote.RegistrationID, Err: err}
				if stop := fail(name, opErr); stop != nil {
					return result, stop
				}
				continue
			}
			result.record(Action{Action: ActionDeleted, Name: name, RegistrationID: remote.RegistrationID})
		}
	}

	return result, errors.Join(errs...)
}

// Teardown deletes every remote registration whose name is declared,
// whatever its delivery kind. Undeclared registrations are left alone.
func (r *Reconciler) Teardown(ctx context.Context, project Project, desired []Desired) (*Result, error) {
	names, err := Names(desired)
	if err != nil {
		return nil, err
	}
	_, directory, err := r.open(ctx, project)
	if err != nil {
		return nil, err
	}
	scope := project.Scope()
	log := r.logger().With(zap.String("workspace_id", scope.WorkspaceID))

	existing, err := directory.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list registrations for workspace %s: %w", scope.WorkspaceID, err)
	}

	result := &Result{Actions: []Action{}}
	var errs []error
	for _, name := range names {
		remote, ok := existing[name]
		if !ok {
			result.record(Action{Action: ActionSkipped, Name: name, Reason: "not registered"})
			continue
		}
		log.Info("deleting registration", zap.String("name", name), zap.String("registration_id", remote.RegistrationID))
		if err := directory.Delete(ctx, scope, remote.RegistrationID); err != nil {
			opErr := &OperationError{Op: "delete", Name: name, RegistrationID: remote.RegistrationID, Err: err}
			result.Failed = append(result.Failed, name)
			if r.Policy == AbortOnError {
				return result, opErr
			}
			errs = append(errs, opErr)
			continue
		}
		result.record(Action{Action: ActionDeleted, Name: name, RegistrationID: remote.RegistrationID})
	}
	return result, errors.Join(errs...)
}

func sortedNames(registrations map[string]events.Registration) []string {
	names := make([]string, 0, len(registrations))
	for name := range registrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
