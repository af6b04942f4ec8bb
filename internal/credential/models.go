package credential

import (
	"time"

	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
)

// Status is the lifecycle state of an issued credential.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Credential is an issued national identity document record. A user holds at
// most one active credential; reissue after loss or revocation creates a new
// record with a fresh number.
type Credential struct {
	ID           id.CredentialID `json:"id"`
	UserID       id.UserID       `json:"user_id"`
	RequestID    id.RequestID    `json:"request_id"`
	CaptureID    id.CaptureID    `json:"capture_id"`
	Number       string          `json:"number"`
	Status       Status          `json:"status"`
	IssuedAt     time.Time       `json:"issued_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
	RevokedAt    *time.Time      `json:"revoked_at,omitempty"`
	RevokedBy    *id.UserID      `json:"revoked_by,omitempty"`
	RevokeReason string          `json:"revoke_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validity of a credential from issuance.
const Validity = 10 * 365 * 24 * time.Hour

// Active reports whether the credential currently grants identity, expiry
// included.
func (c *Credential) Active(now time.Time) bool {
	return c.Status == StatusActive && now.Before(c.ExpiresAt)
}

// Revoke terminally invalidates the credential. Revocation is one-way; an
// expired credential can still be revoked to poison any cached copies.
func (c *Credential) Revoke(by id.UserID, reason string, now time.Time) error {
	if c.Status == StatusRevoked {
		return derrors.New(derrors.CodeConflict, "credential is already revoked")
	}
	c.Status = StatusRevoked
	c.RevokedAt = &now
	c.RevokedBy = &by
	c.RevokeReason = reason
	c.UpdatedAt = now
	return nil
}

// MarkExpired flips an active credential past its expiry date. It reports
// whether the status changed so the caller can persist the transition.
func (c *Credential) MarkExpired(now time.Time) bool {
	if c.Status == StatusActive && !now.Before(c.ExpiresAt) {
		c.Status = StatusExpired
		c.UpdatedAt = now
		return true
	}
	return false
}
