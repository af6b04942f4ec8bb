package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civid/internal/request"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/httputil"
	"civid/pkg/requestcontext"
)

type submitRequestBody struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"` // "2006-01-02"
	Address     string `json:"address"`
	WindowFrom  string `json:"window_from"`
	WindowTo    string `json:"window_to"`
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.Decode[submitRequestBody](w, r, h.logger)
	if !ok {
		return
	}

	dob, err := time.Parse("2006-01-02", body.DateOfBirth)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "date_of_birth must be YYYY-MM-DD"))
		return
	}
	from, err := time.Parse("2006-01-02", body.WindowFrom)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "window_from must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", body.WindowTo)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "window_to must be YYYY-MM-DD"))
		return
	}

	req, err := h.requests.Submit(ctx, request.SubmitParams{
		UserID:      requestcontext.ActorID(ctx),
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		DateOfBirth: dob,
		Address:     body.Address,
		WindowFrom:  from,
		WindowTo:    to,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.requests.Get(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	status := request.Status(r.URL.Query().Get("status"))
	reqs, err := h.requests.ListByStatus(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

type decisionBody struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

func (h *Handler) handleDecideRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.Decode[decisionBody](w, r, h.logger)
	if !ok {
		return
	}
	req, err := h.requests.Decide(r.Context(), requestID, body.Approve, body.Comment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleActiveRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.requests.ActiveForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}
