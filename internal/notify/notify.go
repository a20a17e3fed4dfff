// Package notify delivers raised and resolved alerts to operators. Delivery
// is fire-and-forget: callers hand an alert over and never hear back, and a
// failed send is only ever a log line.
package notify

import (
	"go.uber.org/zap"

	"github.com/eero-drew/eero-business-dashboard/internal/models"
)

// Fanout forwards every alert event to each configured sink.
type Fanout struct {
	Sinks  []Sink
	Logger *zap.Logger
}

// Sink is one delivery mechanism (email, webhook).
type Sink interface {
	Send(event Event) error
	Name() string
}

// Event is the payload handed to sinks.
type Event struct {
	// DeliveryID is unique per send attempt, for correlating sink logs.
	DeliveryID string       `json:"delivery_id"`
	Type       string       `json:"type"` // "raised" | "resolved"
	Alert      models.Alert `json:"alert"`
}

const (
	EventRaised   = "raised"
	EventResolved = "resolved"
)

func (f *Fanout) AlertRaised(alert models.Alert) {
	f.dispatch(EventRaised, alert)
}

func (f *Fanout) AlertResolved(alert models.Alert) {
	f.dispatch(EventResolved, alert)
}

func (f *Fanout) dispatch(eventType string, alert models.Alert) {
	if f == nil || len(f.Sinks) == 0 {
		return
	}
	for _, sink := range f.Sinks {
		sink := sink
		ev := Event{
			DeliveryID: newDeliveryID(),
			Type:       eventType,
			Alert:      alert,
		}
		go func() {
			if err := sink.Send(ev); err != nil && f.Logger != nil {
				f.Logger.Warn("alert delivery failed",
					zap.String("sink", sink.Name()),
					zap.String("delivery_id", ev.DeliveryID),
					zap.String("kind", alert.Kind),
					zap.Error(err),
				)
			}
		}()
	}
}
