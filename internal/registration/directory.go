package registration

import (
	"context"

	"github.com/bilalbayram/eventscli/internal/events"
)

// Directory is the remote registration set of one workspace. Names are the
// reconciliation key; ids are assigned by the service.
type Directory interface {
	List(ctx context.Context, scope events.Scope) (map[string]events.Registration, error)
	Create(ctx context.Context, scope events.Scope, input events.RegistrationInput) (*events.Registration, error)
	Update(ctx context.Context, scope events.Scope, registrationID string, input events.RegistrationInput) (*events.Registration, error)
	Delete(ctx context.Context, scope events.Scope, registrationID string) error
}

// DirectoryFactory opens a directory bound to a resolved identity.
type DirectoryFactory func(identity Identity) Directory

// RemoteDirectory adapts the registration API to Directory.
type RemoteDirectory struct {
	Service     *events.RegistrationService
	Credentials events.Credentials
}

func NewRemoteDirectory(client *events.Client) DirectoryFactory {
	service := events.NewRegistrationService(client)
	return func(identity Identity) Directory {
		return &RemoteDirectory{Service: service, Credentials: identity.Credentials()}
	}
}

func (d *RemoteDirectory) List(ctx context.Context, scope events.Scope) (map[string]events.Registration, error) {
	registrations, err := d.Service.List(ctx, d.Credentials, scope)
	if err != nil {
		return nil, err
	}
	return IndexByName(registrations), nil
}

func (d *RemoteDirectory) Create(ctx context.Context, scope events.Scope, input events.RegistrationInput) (*events.Registration, error) {
	return d.Service.Create(ctx, d.Credentials, scope, input)
}

func (d *RemoteDirectory) Update(ctx context.Context, scope events.Scope, registrationID string, input events.RegistrationInput) (*events.Registration, error) {
	return d.Service.Update(ctx, d.Credentials, scope, registrationID, input)
}

func (d *RemoteDirectory) Delete(ctx context.Context, scope events.Scope, registrationID string) error {
	return d.Service.Delete(ctx, d.Credentials, scope, registrationID)
}

// IndexByName builds the name lookup for one pass. When the service reports
// two registrations with the same name the first one listed wins.
func IndexByName(registrations []events.Registration) map[string]events.Registration {
	index := make(map[string]events.Registration, len(registrations))
	for _, registration := range registrations {
		if _, exists := index[registration.Name]; exists {
			continue
		}
		index[registration.Name] = registration
	}
	return index
}
