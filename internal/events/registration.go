package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type RegistrationService struct {
	Client *Client
}

func NewRegistrationService(client *Client) *RegistrationService {
	if client == nil {
		client = NewClient(nil, "")
	}
	return &RegistrationService{Client: client}
}

func (s *RegistrationService) List(ctx context.Context, creds Credentials, scope Scope) ([]Registration, error) {
	if err := s.ready(scope); err != nil {
		return nil, err
	}

	registrations := []Registration{}
	_, err := s.Client.FetchAll(ctx, Request{
		Method:      http.MethodGet,
		Path:        scope.path("registrations"),
		Credentials: creds,
	}, "registrations", func(raw json.RawMessage) error {
		registration := Registration{}
		if err := json.Unmarshal(raw, &registration); err != nil {
			return fmt.Errorf("decode registration: %w", err)
		}
		registrations = append(registrations, registration)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

func (s *RegistrationService) Get(ctx context.Context, creds Credentials, scope Scope, registrationID string) (*Registration, error) {
	if err := s.ready(scope); err != nil {
		return nil, err
	}
	registrationID, err := normalizeID("registration id", registrationID)
	if err != nil {
		return nil, err
	}

	registration := &Registration{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodGet,
		Path:        scope.path("registrations", registrationID),
		Credentials: creds,
	}, registration); err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *RegistrationService) Create(ctx context.Context, creds Credentials, scope Scope, input RegistrationInput) (*Registration, error) {
	if err := s.ready(scope); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	registration := &Registration{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodPost,
		Path:        scope.path("registrations"),
		Body:        input,
		Credentials: creds,
	}, registration); err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *RegistrationService) Update(ctx context.Context, creds Credentials, scope Scope, registrationID string, input RegistrationInput) (*Registration, error) {
	if err := s.ready(scope); err != nil {
		return nil, err
	}
	registrationID, err := normalizeID("registration id", registrationID)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	registration := &Registration{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodPut,
		Path:        scope.path("registrations", registrationID),
		Body:        input,
		Credentials: creds,
	}, registration); err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *RegistrationService) Delete(ctx context.Context, creds Credentials, scope Scope, registrationID string) error {
	if err := s.ready(scope); err != nil {
		return err
	}
	registrationID, err := normalizeID("registration id", registrationID)
	if err != nil {
		return err
	}

	_, err = s.Client.Do(ctx, Request{
		Method:      http.MethodDelete,
		Path:        scope.path("registrations", registrationID),
		Credentials: creds,
	})
	return err
}

// Validate submits declared registrations to the partner validation endpoint
// without creating anything.
func (s *RegistrationService) Validate(ctx context.Context, creds Credentials, scope Scope, registrations []map[string]any) error {
	if err := s.ready(scope); err != nil {
		return err
	}
	if registrations == nil {
		registrations = []map[string]any{}
	}
	_, err := s.Client.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        scope.path("isv", "registrations", "validate"),
		Body:        registrations,
		Credentials: creds,
	})
	return err
}

func (s *RegistrationService) ready(scope Scope) error {
	if s == nil || s.Client == nil {
		return errors.New("registration service client is required")
	}
	return scope.Validate()
}

func normalizeID(label string, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if strings.Contains(trimmed, "/") {
		return "", fmt.Errorf("%s %q must not contain '/'", label, trimmed)
	}
	return trimmed, nil
}
