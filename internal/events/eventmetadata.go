package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type EventMetadataService struct {
	Client *Client
}

func NewEventMetadataService(client *Client) *EventMetadataService {
	if client == nil {
		client = NewClient(nil, "")
	}
	return &EventMetadataService{Client: client}
}

func (s *EventMetadataService) List(ctx context.Context, creds Credentials, providerID string) ([]EventMetadata, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("event metadata service client is required")
	}
	providerID, err := normalizeID("provider id", providerID)
	if err != nil {
		return nil, err
	}

	metadata := []EventMetadata{}
	_, err = s.Client.FetchAll(ctx, Request{
		Method:      http.MethodGet,
		Path:        "/events/providers/" + providerID + "/eventmetadata",
		Credentials: creds,
	}, "eventmetadata", func(raw json.RawMessage) error {
		item := EventMetadata{}
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("decode event metadata: %w", err)
		}
		metadata = append(metadata, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metadata, nil
}

func (s *EventMetadataService) Get(ctx context.Context, creds Credentials, providerID string, eventCode string) (*EventMetadata, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("event metadata service client is required")
	}
	providerID, err := normalizeID("provider id", providerID)
	if err != nil {
		return nil, err
	}
	eventCode, err = normalizeID("event code", eventCode)
	if err != nil {
		return nil, err
	}

	metadata := &EventMetadata{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodGet,
		Path:        "/events/providers/" + providerID + "/eventmetadata/" + eventCode,
		Credentials: creds,
	}, metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

func (s *EventMetadataService) Create(ctx context.Context, creds Credentials, scope Scope, providerID string, input EventMetadataInput) (*EventMetadata, error) {
	providerID, err := s.ready(scope, providerID)
	if err != nil {
		return nil, err
	}
	if err := validateEventMetadataInput(input); err != nil {
		return nil, err
	}

	metadata := &EventMetadata{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodPost,
		Path:        scope.path("providers", providerID, "eventmetadata"),
		Body:        input,
		Credentials: creds,
	}, metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

func (s *EventMetadataService) Update(ctx context.Context, creds Credentials, scope Scope, providerID string, input EventMetadataInput) (*EventMetadata, error) {
	providerID, err := s.ready(scope, providerID)
	if err != nil {
		return nil, err
	}
	if err := validateEventMetadataInput(input); err != nil {
		return nil, err
	}

	metadata := &EventMetadata{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodPut,
		Path:        scope.path("providers", providerID, "eventmetadata", input.EventCode),
		Body:        input,
		Credentials: creds,
	}, metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// Delete removes one event code, or every event code of the provider when
// eventCode is empty.
func (s *EventMetadataService) Delete(ctx context.Context, creds Credentials, scope Scope, providerID string, eventCode string) error {
	providerID, err := s.ready(scope, providerID)
	if err != nil {
		return err
	}

	parts := []string{"providers", providerID, "eventmetadata"}
	if code := strings.TrimSpace(eventCode); code != "" {
		if strings.Contains(code, "/") {
			return fmt.Errorf("event code %q must not contain '/'", code)
		}
		parts = append(parts, code)
	}
	_, err = s.Client.Do(ctx, Request{
		Method:      http.MethodDelete,
		Path:        scope.path(parts...),
		Credentials: creds,
	})
	return err
}

func (s *EventMetadataService) ready(scope Scope, providerID string) (string, error) {
	if s == nil || s.Client == nil {
		return "", errors.New("event metadata service client is required")
	}
	if err := scope.Validate(); err != nil {
		return "", err
	}
	return normalizeID("provider id", providerID)
}

func validateEventMetadataInput(input EventMetadataInput) error {
	if strings.TrimSpace(input.EventCode) == "" {
		return errors.New("event code is required")
	}
	if strings.Contains(input.EventCode, "/") {
		return fmt.Errorf("event code %q must not contain '/'", input.EventCode)
	}
	if strings.TrimSpace(input.Label) == "" {
		return errors.New("event metadata label is required")
	}
	return nil
}
