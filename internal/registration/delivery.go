package registration

import (
	"strings"

	"github.com/bilalbayram/eventscli/internal/events"
)

// DeliveryKind is how matching events reach the consumer. Webhook and Journal
// are the kinds the deploy hooks reconcile; any other explicit delivery_type
// is carried as an unknown kind so it can be reported instead of misrouted.
type DeliveryKind struct {
	name  string
	known bool
}

var (
	Webhook = DeliveryKind{name: events.DeliveryTypeWebhook, known: true}
	Journal = DeliveryKind{name: events.DeliveryTypeJournal, known: true}
)

func UnknownDelivery(raw string) DeliveryKind {
	return DeliveryKind{name: raw}
}

func (k DeliveryKind) String() string {
	return k.name
}

func (k DeliveryKind) IsKnown() bool {
	return k.known
}

// Classify derives the delivery kind of a declared registration. An explicit
// delivery_type always wins. A batch webhook is reconciled with the webhook
// kind, matching how classifyRemote prunes it; BuildInput still sends the
// declared value verbatim.
func Classify(desired Desired) DeliveryKind {
	if desired.DeliveryType != "" {
		switch desired.DeliveryType {
		case events.DeliveryTypeWebhook, events.DeliveryTypeWebhookBatch:
			return Webhook
		case events.DeliveryTypeJournal:
			return Journal
		default:
			return UnknownDelivery(desired.DeliveryType)
		}
	}
	if desired.WebhookURL != "" || desired.RuntimeAction != "" {
		return Webhook
	}
	return Journal
}

// classifyRemote maps a registration reported by the service onto the kind
// filter used for pruning. The service reports batch webhooks and upper-case
// values, which both count as their base kind here.
func classifyRemote(remote events.Registration) DeliveryKind {
	switch strings.ToLower(strings.TrimSpace(remote.DeliveryType)) {
	case events.DeliveryTypeWebhook, events.DeliveryTypeWebhookBatch:
		return Webhook
	case events.DeliveryTypeJournal:
		return Journal
	case "":
		if remote.WebhookURL != "" || remote.RuntimeAction != "" {
			return Webhook
		}
		return Journal
	default:
		return UnknownDelivery(remote.DeliveryType)
	}
}
