package biometric_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civid/internal/biometric"
	derrors "civid/pkg/domain-errors"
)

var testPolicy = biometric.Policy{
	MinFingerprints:  8,
	MinFingerQuality: 0.6,
	MinFaceQuality:   0.7,
	MinIrisQuality:   0.7,
}

var fingerLabels = []string{
	"left_thumb", "left_index", "left_middle", "left_ring",
	"right_thumb", "right_index", "right_middle", "right_ring",
}

func goodFingerprints(quality float64) []biometric.Fingerprint {
	out := make([]biometric.Fingerprint, len(fingerLabels))
	for i, label := range fingerLabels {
		out[i] = biometric.Fingerprint{Finger: label, Quality: quality}
	}
	return out
}

func goodCapture() *biometric.Capture {
	return &biometric.Capture{
		Fingerprints: goodFingerprints(0.9),
		FaceQuality:  0.9,
		FaceRef:      "s3://captures/face.png",
	}
}

func TestCaptureValidate(t *testing.T) {
	require.NoError(t, goodCapture().Validate(testPolicy))

	t.Run("too few fingerprints", func(t *testing.T) {
		c := goodCapture()
		c.Fingerprints = c.Fingerprints[:5]
		err := c.Validate(testPolicy)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("missing face reference", func(t *testing.T) {
		c := goodCapture()
		c.FaceRef = ""
		err := c.Validate(testPolicy)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("duplicate finger", func(t *testing.T) {
		c := goodCapture()
		c.Fingerprints[3].Finger = "left_thumb"
		err := c.Validate(testPolicy)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("unlabelled finger", func(t *testing.T) {
		c := goodCapture()
		c.Fingerprints[0].Finger = ""
		err := c.Validate(testPolicy)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("quality out of range", func(t *testing.T) {
		c := goodCapture()
		c.Fingerprints[0].Quality = 1.2
		err := c.Validate(testPolicy)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})
}

func TestCaptureEvaluate(t *testing.T) {
	iris := func(q float64) *float64 { return &q }

	cases := []struct {
		name   string
		mutate func(c *biometric.Capture)
		want   biometric.VerificationStatus
	}{
		{"all scores clear thresholds", func(c *biometric.Capture) {}, biometric.StatusVerified},
		{"finger at zero fails", func(c *biometric.Capture) { c.Fingerprints[2].Quality = 0 }, biometric.StatusFailed},
		{"face at zero fails", func(c *biometric.Capture) { c.FaceQuality = 0 }, biometric.StatusFailed},
		{"iris at zero fails", func(c *biometric.Capture) { c.IrisQuality = iris(0) }, biometric.StatusFailed},
		{"finger below threshold reviews", func(c *biometric.Capture) { c.Fingerprints[2].Quality = 0.5 }, biometric.StatusRequiresReview},
		{"face below threshold reviews", func(c *biometric.Capture) { c.FaceQuality = 0.65 }, biometric.StatusRequiresReview},
		{"iris below threshold reviews", func(c *biometric.Capture) { c.IrisQuality = iris(0.5) }, biometric.StatusRequiresReview},
		{"iris above threshold verifies", func(c *biometric.Capture) { c.IrisQuality = iris(0.8) }, biometric.StatusVerified},
		{"zero beats below-threshold", func(c *biometric.Capture) {
			c.Fingerprints[0].Quality = 0
			c.FaceQuality = 0.65
		}, biometric.StatusFailed},
		{"finger exactly at threshold verifies", func(c *biometric.Capture) { c.Fingerprints[2].Quality = 0.6 }, biometric.StatusVerified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := goodCapture()
			tc.mutate(c)
			assert.Equal(t, tc.want, c.Evaluate(testPolicy))
		})
	}
}

func TestCaptureUsable(t *testing.T) {
	for _, tc := range []struct {
		status biometric.VerificationStatus
		want   bool
	}{
		{biometric.StatusVerified, true},
		{biometric.StatusPending, false},
		{biometric.StatusFailed, false},
		{biometric.StatusRequiresReview, false},
	} {
		c := &biometric.Capture{Status: tc.status}
		assert.Equal(t, tc.want, c.Usable(), fmt.Sprintf("status %s", tc.status))
	}
}
