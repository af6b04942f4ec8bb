package audit

import (
	"time"

	id "civid/pkg/domain"
)

// Kind names the audited action.
type Kind string

const (
	KindRequestSubmitted     Kind = "request.submitted"
	KindRequestDecided       Kind = "request.decided"
	KindAppointmentBooked    Kind = "appointment.booked"
	KindAppointmentCompleted Kind = "appointment.completed"
	KindAppointmentCancelled Kind = "appointment.cancelled"
	KindAppointmentMissed    Kind = "appointment.missed"
	KindCaptureRecorded      Kind = "capture.recorded"
	KindCaptureVerified      Kind = "capture.verified"
	KindCredentialIssued     Kind = "credential.issued"
	KindCredentialRevoked    Kind = "credential.revoked"
)

// Event is emitted from domain logic to capture key workflow actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Kind      Kind              `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Actor     id.UserID         `json:"actor"`
	Subject   id.UserID         `json:"subject"`
	RequestID string            `json:"request_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
