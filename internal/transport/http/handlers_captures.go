package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"civid/internal/biometric"
	id "civid/pkg/domain"
	"civid/pkg/platform/httputil"
)

type fingerprintBody struct {
	Finger  string  `json:"finger"`
	Quality float64 `json:"quality"`
}

type recordCaptureBody struct {
	AppointmentID string            `json:"appointment_id"`
	Fingerprints  []fingerprintBody `json:"fingerprints"`
	FaceQuality   float64           `json:"face_quality"`
	FaceRef       string            `json:"face_ref"`
	IrisQuality   *float64          `json:"iris_quality,omitempty"`
	IrisRef       string            `json:"iris_ref,omitempty"`
	DocumentRefs  []string          `json:"document_refs,omitempty"`
}

func (h *Handler) handleRecordCapture(w http.ResponseWriter, r *http.Request) {
	body, ok := httputil.Decode[recordCaptureBody](w, r, h.logger)
	if !ok {
		return
	}
	appointmentID, err := id.ParseAppointmentID(body.AppointmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fingerprints := make([]biometric.Fingerprint, 0, len(body.Fingerprints))
	for _, fp := range body.Fingerprints {
		fingerprints = append(fingerprints, biometric.Fingerprint{Finger: fp.Finger, Quality: fp.Quality})
	}

	capture, err := h.captures.Record(r.Context(), biometric.RecordParams{
		AppointmentID: appointmentID,
		Fingerprints:  fingerprints,
		FaceQuality:   body.FaceQuality,
		FaceRef:       body.FaceRef,
		IrisQuality:   body.IrisQuality,
		IrisRef:       body.IrisRef,
		DocumentRefs:  body.DocumentRefs,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, capture)
}

func (h *Handler) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	captureID, err := id.ParseCaptureID(chi.URLParam(r, "captureID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	capture, err := h.captures.Get(r.Context(), captureID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, capture)
}

type reviewCaptureBody struct {
	Accept bool   `json:"accept"`
	Note   string `json:"note,omitempty"`
}

func (h *Handler) handleReviewCapture(w http.ResponseWriter, r *http.Request) {
	captureID, err := id.ParseCaptureID(chi.URLParam(r, "captureID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.Decode[reviewCaptureBody](w, r, h.logger)
	if !ok {
		return
	}
	capture, err := h.captures.Review(r.Context(), captureID, body.Accept, body.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, capture)
}
