package registration

import "github.com/bilalbayram/eventscli/internal/events"

// ExpandEventsOfInterest flattens the compact declaration into the
// provider_id/event_code pairs the service expects, preserving input order.
func ExpandEventsOfInterest(desired Desired, mapping MetadataMapping) ([]events.EventOfInterest, error) {
	expanded := make([]events.EventOfInterest, 0, countEventCodes(desired))
	for _, decl := range desired.EventsOfInterest {
		providerID, ok := mapping[decl.ProviderMetadata]
		if !ok {
			return nil, &UnmappedProviderMetadataError{
				Registration:     desired.Name,
				ProviderMetadata: decl.ProviderMetadata,
			}
		}
		for _, code := range decl.EventCodes {
			expanded = append(expanded, events.EventOfInterest{
				ProviderID: providerID,
				EventCode:  code,
			})
		}
	}
	return expanded, nil
}

func countEventCodes(desired Desired) int {
	total := 0
	for _, decl := range desired.EventsOfInterest {
		total += len(decl.EventCodes)
	}
	return total
}

// BuildInput renders the request body for a declared registration. It is
// rebuilt from scratch on every pass and never merged with remote state.
func BuildInput(desired Desired, clientID string, mapping MetadataMapping) (events.RegistrationInput, error) {
	eventsOfInterest, err := ExpandEventsOfInterest(desired, mapping)
	if err != nil {
		return events.RegistrationInput{}, err
	}
	deliveryType := desired.DeliveryType
	if deliveryType == "" {
		deliveryType = Classify(desired).String()
	}
	return events.RegistrationInput{
		Name:             desired.Name,
		ClientID:         clientID,
		Description:      desired.Description,
		DeliveryType:     deliveryType,
		WebhookURL:       desired.WebhookURL,
		RuntimeAction:    desired.RuntimeAction,
		EventsOfInterest: eventsOfInterest,
	}, nil
}
