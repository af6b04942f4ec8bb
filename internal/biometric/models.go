package biometric

import (
	"time"

	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
)

// VerificationStatus is the outcome of quality checks on a capture.
type VerificationStatus string

const (
	StatusPending        VerificationStatus = "pending"
	StatusVerified       VerificationStatus = "verified"
	StatusFailed         VerificationStatus = "failed"
	StatusRequiresReview VerificationStatus = "requires_review"
)

// Fingerprint is one scanned finger with its quality score.
type Fingerprint struct {
	Finger  string  `json:"finger"` // "left_index", "right_thumb", ...
	Quality float64 `json:"quality"`
}

// Capture is the biometric record taken at an appointment. At most one
// capture exists per appointment; re-capture replaces artifact references on
// the same record rather than creating a second one.
type Capture struct {
	ID            id.CaptureID       `json:"id"`
	RequestID     id.RequestID       `json:"request_id"`
	AppointmentID id.AppointmentID   `json:"appointment_id"`
	UserID        id.UserID          `json:"user_id"`
	OfficerID     id.UserID          `json:"officer_id"`
	Fingerprints  []Fingerprint      `json:"fingerprints"`
	FaceQuality   float64            `json:"face_quality"`
	FaceRef       string             `json:"face_ref"`
	IrisQuality   *float64           `json:"iris_quality,omitempty"`
	IrisRef       string             `json:"iris_ref,omitempty"`
	DocumentRefs  []string           `json:"document_refs,omitempty"`
	Status        VerificationStatus `json:"status"`
	ReviewNote    string             `json:"review_note,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Policy is the quality policy a capture is evaluated against.
type Policy struct {
	MinFingerprints  int
	MinFingerQuality float64
	MinFaceQuality   float64
	MinIrisQuality   float64
}

// Validate checks structural completeness before any quality scoring.
func (c *Capture) Validate(policy Policy) error {
	if len(c.Fingerprints) < policy.MinFingerprints {
		return derrors.Newf(derrors.CodeValidation, "at least %d fingerprints are required, got %d", policy.MinFingerprints, len(c.Fingerprints))
	}
	if c.FaceRef == "" {
		return derrors.New(derrors.CodeValidation, "face image reference is required")
	}
	seen := make(map[string]struct{}, len(c.Fingerprints))
	for _, fp := range c.Fingerprints {
		if fp.Finger == "" {
			return derrors.New(derrors.CodeValidation, "fingerprint is missing its finger label")
		}
		if _, ok := seen[fp.Finger]; ok {
			return derrors.Newf(derrors.CodeValidation, "duplicate fingerprint for %s", fp.Finger)
		}
		seen[fp.Finger] = struct{}{}
		if fp.Quality < 0 || fp.Quality > 1 {
			return derrors.Newf(derrors.CodeValidation, "fingerprint quality for %s out of range", fp.Finger)
		}
	}
	return nil
}

// Evaluate derives the verification status from the quality scores. Hard
// failures (any score at zero) fail outright; scores below threshold but
// nonzero land in requires_review so an officer can retake or accept.
func (c *Capture) Evaluate(policy Policy) VerificationStatus {
	failed := false
	review := false

	for _, fp := range c.Fingerprints {
		switch {
		case fp.Quality == 0:
			failed = true
		case fp.Quality < policy.MinFingerQuality:
			review = true
		}
	}
	switch {
	case c.FaceQuality == 0:
		failed = true
	case c.FaceQuality < policy.MinFaceQuality:
		review = true
	}
	if c.IrisQuality != nil {
		switch {
		case *c.IrisQuality == 0:
			failed = true
		case *c.IrisQuality < policy.MinIrisQuality:
			review = true
		}
	}

	switch {
	case failed:
		return StatusFailed
	case review:
		return StatusRequiresReview
	default:
		return StatusVerified
	}
}

// Usable reports whether the capture clears the bar for credential issuance.
func (c *Capture) Usable() bool {
	return c.Status == StatusVerified
}
