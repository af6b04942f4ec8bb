// Package domain holds shared identity primitives: typed entity IDs and the
// Month value type used by schedule ledgers.
//
// Typed IDs prevent cross-entity assignment at compile time (a CenterID can
// never be passed where a RequestID is expected). Parse functions enforce the
// trust-boundary invariant that IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	derrors "civid/pkg/domain-errors"
)

type (
	// UserID identifies a citizen or officer account. Officers are users
	// whose role claim grants officer privileges.
	UserID uuid.UUID

	// CenterID identifies a physical enrollment center.
	CenterID uuid.UUID

	// RequestID identifies an identity credential request.
	RequestID uuid.UUID

	// AppointmentID identifies a booked enrollment appointment.
	AppointmentID uuid.UUID

	// CaptureID identifies a biometric capture record.
	CaptureID uuid.UUID

	// CredentialID identifies an issued credential record.
	CredentialID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id CenterID) String() string      { return uuid.UUID(id).String() }
func (id RequestID) String() string     { return uuid.UUID(id).String() }
func (id AppointmentID) String() string { return uuid.UUID(id).String() }
func (id CaptureID) String() string     { return uuid.UUID(id).String() }
func (id CredentialID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CenterID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id AppointmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CaptureID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep the canonical UUID string form in JSON
// payloads and map keys; defined types do not inherit uuid.UUID's methods.

func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id CenterID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id AppointmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id CaptureID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id CredentialID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *CenterID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CenterID(u)
	return nil
}

func (id *RequestID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = RequestID(u)
	return nil
}

func (id *AppointmentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = AppointmentID(u)
	return nil
}

func (id *CaptureID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CaptureID(u)
	return nil
}

func (id *CredentialID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CredentialID(u)
	return nil
}

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewCenterID returns a fresh random center ID.
func NewCenterID() CenterID { return CenterID(uuid.New()) }

// NewRequestID returns a fresh random request ID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewAppointmentID returns a fresh random appointment ID.
func NewAppointmentID() AppointmentID { return AppointmentID(uuid.New()) }

// NewCaptureID returns a fresh random capture ID.
func NewCaptureID() CaptureID { return CaptureID(uuid.New()) }

// NewCredentialID returns a fresh random credential ID.
func NewCredentialID() CredentialID { return CredentialID(uuid.New()) }

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseCenterID parses and validates a center ID from its string form.
func ParseCenterID(s string) (CenterID, error) {
	u, err := parseUUID(s, "center id")
	return CenterID(u), err
}

// ParseRequestID parses and validates a request ID from its string form.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	return RequestID(u), err
}

// ParseAppointmentID parses and validates an appointment ID from its string form.
func ParseAppointmentID(s string) (AppointmentID, error) {
	u, err := parseUUID(s, "appointment id")
	return AppointmentID(u), err
}

// ParseCaptureID parses and validates a capture ID from its string form.
func ParseCaptureID(s string) (CaptureID, error) {
	u, err := parseUUID(s, "capture id")
	return CaptureID(u), err
}

// ParseCredentialID parses and validates a credential ID from its string form.
func ParseCredentialID(s string) (CredentialID, error) {
	u, err := parseUUID(s, "credential id")
	return CredentialID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s must not be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s must not be the nil UUID", what)
	}
	return u, nil
}
