package events

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DeliveryTypeWebhook      = "webhook"
	DeliveryTypeWebhookBatch = "webhook_batch"
	DeliveryTypeJournal      = "journal"
)

// Scope addresses a single workspace of a project in an organization.
type Scope struct {
	OrgID       string
	ProjectID   string
	WorkspaceID string
}

func (s Scope) Validate() error {
	if strings.TrimSpace(s.OrgID) == "" {
		return errors.New("org id is required")
	}
	if strings.TrimSpace(s.ProjectID) == "" {
		return errors.New("project id is required")
	}
	if strings.TrimSpace(s.WorkspaceID) == "" {
		return errors.New("workspace id is required")
	}
	return nil
}

func (s Scope) path(parts ...string) string {
	segments := append([]string{"events", s.OrgID, s.ProjectID, s.WorkspaceID}, parts...)
	return "/" + strings.Join(segments, "/")
}

type EventOfInterest struct {
	ProviderID string `json:"provider_id" yaml:"provider_id"`
	EventCode  string `json:"event_code" yaml:"event_code"`
}

type Registration struct {
	ID               string            `json:"id,omitempty" yaml:"id,omitempty"`
	RegistrationID   string            `json:"registration_id" yaml:"registration_id"`
	Name             string            `json:"name" yaml:"name"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	ClientID         string            `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	DeliveryType     string            `json:"delivery_type,omitempty" yaml:"delivery_type,omitempty"`
	WebhookURL       string            `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	RuntimeAction    string            `json:"runtime_action,omitempty" yaml:"runtime_action,omitempty"`
	WebhookStatus    string            `json:"webhook_status,omitempty" yaml:"webhook_status,omitempty"`
	Enabled          *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	EventsOfInterest []EventOfInterest `json:"events_of_interest,omitempty" yaml:"events_of_interest,omitempty"`
	CreatedDate      string            `json:"created_date,omitempty" yaml:"created_date,omitempty"`
	UpdatedDate      string            `json:"updated_date,omitempty" yaml:"updated_date,omitempty"`
}

// RegistrationInput is the create/update request body.
type RegistrationInput struct {
	Name             string            `json:"name"`
	ClientID         string            `json:"client_id"`
	Description      string            `json:"description,omitempty"`
	DeliveryType     string            `json:"delivery_type"`
	WebhookURL       string            `json:"webhook_url,omitempty"`
	RuntimeAction    string            `json:"runtime_action,omitempty"`
	EventsOfInterest []EventOfInterest `json:"events_of_interest"`
}

func (in RegistrationInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("registration name is required")
	}
	if strings.TrimSpace(in.ClientID) == "" {
		return fmt.Errorf("registration %q client_id is required", in.Name)
	}
	if strings.TrimSpace(in.DeliveryType) == "" {
		return fmt.Errorf("registration %q delivery_type is required", in.Name)
	}
	return nil
}

type Provider struct {
	ID                  string          `json:"id" yaml:"id"`
	Label               string          `json:"label" yaml:"label"`
	Description         string          `json:"description,omitempty" yaml:"description,omitempty"`
	Source              string          `json:"source,omitempty" yaml:"source,omitempty"`
	DocsURL             string          `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Publisher           string          `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	ProviderMetadata    string          `json:"provider_metadata,omitempty" yaml:"provider_metadata,omitempty"`
	InstanceID          string          `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	EventDeliveryFormat string          `json:"event_delivery_format,omitempty" yaml:"event_delivery_format,omitempty"`
	EventMetadata       []EventMetadata `json:"event_metadata,omitempty" yaml:"event_metadata,omitempty"`
}

type ProviderInput struct {
	Label            string `json:"label"`
	Description      string `json:"description,omitempty"`
	DocsURL          string `json:"docs_url,omitempty"`
	ProviderMetadata string `json:"provider_metadata,omitempty"`
	InstanceID       string `json:"instance_id,omitempty"`
}

type EventMetadata struct {
	EventCode   string `json:"event_code" yaml:"event_code"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type EventMetadataInput struct {
	EventCode   string `json:"event_code"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}
