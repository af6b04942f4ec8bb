package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"civid/internal/credential"
	id "civid/pkg/domain"
	"civid/pkg/platform/httputil"
)

type issueCredentialBody struct {
	RequestID string `json:"request_id"`
}

func (h *Handler) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	body, ok := httputil.Decode[issueCredentialBody](w, r, h.logger)
	if !ok {
		return
	}
	requestID, err := id.ParseRequestID(body.RequestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cred, err := h.credentials.Issue(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cred)
}

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cred, err := h.credentials.Get(r.Context(), credentialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cred)
}

type revokeCredentialBody struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.Decode[revokeCredentialBody](w, r, h.logger)
	if !ok {
		return
	}
	cred, err := h.credentials.Revoke(r.Context(), credentialID, body.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cred)
}

func (h *Handler) handleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	cred, err := h.credentials.Verify(r.Context(), number)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"number": cred.Number,
		"status": cred.Status,
		"valid":  cred.Status == credential.StatusActive,
	})
}

func (h *Handler) handleCredentialHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	creds, err := h.credentials.History(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"credentials": creds})
}
