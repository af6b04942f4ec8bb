// Package notify is the outbound notification collaborator boundary. The
// core treats delivery (email, SMS) as a black box: Notify is fire-and-forget
// and a failing notifier must never block the workflow step that triggered it.
package notify

import (
	"context"
	"log/slog"

	id "civid/pkg/domain"
)

// EventKind names a user-facing notification.
type EventKind string

const (
	EventRequestApproved      EventKind = "request.approved"
	EventRequestRejected      EventKind = "request.rejected"
	EventAppointmentBooked    EventKind = "appointment.booked"
	EventAppointmentCancelled EventKind = "appointment.cancelled"
	EventCredentialIssued     EventKind = "credential.issued"
	EventCredentialRevoked    EventKind = "credential.revoked"
)

// Event carries what the delivery service needs to render a message.
type Event struct {
	Kind EventKind
	Data map[string]string
}

// Notifier delivers a notification to a user. Implementations swallow their
// own failures; callers never branch on the outcome.
type Notifier interface {
	Notify(ctx context.Context, user id.UserID, event Event)
}

// LogNotifier records notifications in the log; the default when no delivery
// service is wired.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, user id.UserID, event Event) {
	n.logger.InfoContext(ctx, "notification", "user_id", user, "kind", event.Kind)
}
