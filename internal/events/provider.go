package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ProviderService struct {
	Client *Client
}

type ProviderListOptions struct {
	IncludeEventMetadata bool
	ProviderMetadataIDs  []string
}

// providerEnvelope mirrors a provider with its event metadata embedded.
type providerEnvelope struct {
	Provider
	Embedded struct {
		EventMetadata []EventMetadata `json:"eventmetadata"`
	} `json:"_embedded"`
}

func (e providerEnvelope) flatten() Provider {
	provider := e.Provider
	if len(e.Embedded.EventMetadata) > 0 {
		provider.EventMetadata = e.Embedded.EventMetadata
	}
	return provider
}

func NewProviderService(client *Client) *ProviderService {
	if client == nil {
		client = NewClient(nil, "")
	}
	return &ProviderService{Client: client}
}

func (s *ProviderService) List(ctx context.Context, creds Credentials, orgID string, options ProviderListOptions) ([]Provider, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("provider service client is required")
	}
	orgID, err := normalizeID("org id", orgID)
	if err != nil {
		return nil, err
	}

	query := map[string]string{}
	if options.IncludeEventMetadata {
		query["eventmetadata"] = "true"
	}
	if len(options.ProviderMetadataIDs) > 0 {
		query["providerMetadataIds"] = strings.Join(options.ProviderMetadataIDs, ",")
	}

	providers := []Provider{}
	_, err = s.Client.FetchAll(ctx, Request{
		Method:      http.MethodGet,
		Path:        "/events/" + orgID + "/providers",
		Query:       query,
		Credentials: creds,
	}, "providers", func(raw json.RawMessage) error {
		envelope := providerEnvelope{}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return fmt.Errorf("decode provider: %w", err)
		}
		providers = append(providers, envelope.flatten())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (s *ProviderService) Get(ctx context.Context, creds Credentials, providerID string, includeEventMetadata bool) (*Provider, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("provider service client is required")
	}
	providerID, err := normalizeID("provider id", providerID)
	if err != nil {
		return nil, err
	}

	query := map[string]string{}
	if includeEventMetadata {
		query["eventmetadata"] = "true"
	}
	envelope := providerEnvelope{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodGet,
		Path:        "/events/providers/" + providerID,
		Query:       query,
		Credentials: creds,
	}, &envelope); err != nil {
		return nil, err
	}
	provider := envelope.flatten()
	return &provider, nil
}

func (s *ProviderService) Create(ctx context.Context, creds Credentials, scope Scope, input ProviderInput) (*Provider, error) {
	if err := s.ready(scope); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Label) == "" {
		return nil, errors.New("provider label is required")
	}

	provider := &Provider{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodPost,
		Path:        scope.path("providers"),
		Body:        input,
		Credentials: creds,
	}, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *ProviderService) Update(ctx context.Context, creds Credentials, scope Scope, providerID string, input ProviderInput) (*Provider, error) {
	if err := s.ready(scope); err != nil {
		return nil, err
	}
	providerID, err := normalizeID("provider id", providerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Label) == "" {
		return nil, errors.New("provider label is required")
	}

	provider := &Provider{}
	if _, err := s.Client.DoJSON(ctx, Request{
		Method:      http.MethodPut,
		Path:        scope.path("providers", providerID),
		Body:        input,
		Credentials: creds,
	}, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *ProviderService) Delete(ctx context.Context, creds Credentials, scope Scope, providerID string) error {
	if err := s.ready(scope); err != nil {
		return err
	}
	providerID, err := normalizeID("provider id", providerID)
	if err != nil {
		return err
	}

	_, err = s.Client.Do(ctx, Request{
		Method:      http.MethodDelete,
		Path:        scope.path("providers", providerID),
		Credentials: creds,
	})
	return err
}

func (s *ProviderService) ready(scope Scope) error {
	if s == nil || s.Client == nil {
		return errors.New("provider service client is required")
	}
	return scope.Validate()
}
