package registration

import (
	"fmt"
	"strings"
)

// EventsOfInterestDecl is the compact form used in app config: one provider
// referenced by its metadata key, with the event codes of interest.
type EventsOfInterestDecl struct {
	ProviderMetadata string   `yaml:"provider_metadata" json:"provider_metadata"`
	EventCodes       []string `yaml:"event_codes" json:"event_codes"`
}

// Desired is a registration as declared in app config, keyed by Name.
type Desired struct {
	Name             string                 `yaml:"-" json:"name"`
	Description      string                 `yaml:"description,omitempty" json:"description,omitempty"`
	DeliveryType     string                 `yaml:"delivery_type,omitempty" json:"delivery_type,omitempty"`
	WebhookURL       string                 `yaml:"webhook_url,omitempty" json:"webhook_url,omitempty"`
	RuntimeAction    string                 `yaml:"runtime_action,omitempty" json:"runtime_action,omitempty"`
	EventsOfInterest []EventsOfInterestDecl `yaml:"events_of_interest" json:"events_of_interest"`
}

// Names returns declared names in declaration order and rejects blank or
// duplicate names. Names are kept exactly as declared, since the service
// matches them byte for byte.
func Names(desired []Desired) ([]string, error) {
	names := make([]string, 0, len(desired))
	seen := make(map[string]struct{}, len(desired))
	for _, registration := range desired {
		name := registration.Name
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: registration name cannot be empty", ErrInvalidDeclaration)
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("%w: registration %q is declared more than once", ErrInvalidDeclaration, name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}
