// Package queue moves notifications through RabbitMQ: the server publishes
// NotificationEvent messages and the notifier process consumes them.
package queue

import "github.com/iliyamo/slot-booking/internal/notify"

// NotificationEvent is the wire form of a queued notification.  It carries
// the rendered message so consumers never query the booking store.
type NotificationEvent struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	BookingID int64  `json:"booking_id"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	HTML      string `json:"html,omitempty"`
	QueuedAt  string `json:"queued_at"`
}

func eventFromMessage(m notify.Message, queuedAt string) NotificationEvent {
	return NotificationEvent{
		ID:        m.ID,
		Kind:      m.Kind,
		BookingID: m.BookingID,
		To:        m.To,
		Subject:   m.Subject,
		Text:      m.Text,
		HTML:      m.HTML,
		QueuedAt:  queuedAt,
	}
}

// Message converts the event back into a deliverable message.
func (e NotificationEvent) Message() notify.Message {
	return notify.Message{
		ID:        e.ID,
		Kind:      e.Kind,
		BookingID: e.BookingID,
		To:        e.To,
		Subject:   e.Subject,
		Text:      e.Text,
		HTML:      e.HTML,
	}
}
