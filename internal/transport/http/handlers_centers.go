package httptransport

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"civid/internal/center"
	"civid/internal/schedule"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/httputil"
)

type dayRuleBody struct {
	Capacity int    `json:"capacity"`
	Opens    string `json:"opens"`
	Closes   string `json:"closes"`
}

type createCenterBody struct {
	Name     string                 `json:"name"`
	Address  string                 `json:"address"`
	Region   string                 `json:"region"`
	Template map[string]dayRuleBody `json:"template,omitempty"`
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseTemplate(body map[string]dayRuleBody) (schedule.WeeklyTemplate, error) {
	if len(body) == 0 {
		return nil, nil
	}
	t := make(schedule.WeeklyTemplate, len(body))
	for name, rule := range body {
		day, ok := weekdaysByName[strings.ToLower(name)]
		if !ok {
			return nil, derrors.Newf(derrors.CodeBadRequest, "unknown weekday %q", name)
		}
		t[day] = schedule.DayRule{Capacity: rule.Capacity, Opens: rule.Opens, Closes: rule.Closes}
	}
	return t, nil
}

func (h *Handler) handleCreateCenter(w http.ResponseWriter, r *http.Request) {
	body, ok := httputil.Decode[createCenterBody](w, r, h.logger)
	if !ok {
		return
	}
	template, err := parseTemplate(body.Template)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.centers.Create(r.Context(), center.CreateParams{
		Name:     body.Name,
		Address:  body.Address,
		Region:   body.Region,
		Template: template,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGetCenter(w http.ResponseWriter, r *http.Request) {
	centerID, err := id.ParseCenterID(chi.URLParam(r, "centerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.centers.Get(r.Context(), centerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.centers.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"centers": centers})
}

func (h *Handler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	centerID, err := id.ParseCenterID(chi.URLParam(r, "centerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.Decode[map[string]dayRuleBody](w, r, h.logger)
	if !ok {
		return
	}
	template, err := parseTemplate(body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if template == nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "template is required"))
		return
	}
	c, err := h.centers.UpdateTemplate(r.Context(), centerID, template)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

type centerStatusBody struct {
	Status string `json:"status"`
}

func (h *Handler) handleSetCenterStatus(w http.ResponseWriter, r *http.Request) {
	centerID, err := id.ParseCenterID(chi.URLParam(r, "centerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.Decode[centerStatusBody](w, r, h.logger)
	if !ok {
		return
	}
	c, err := h.centers.SetStatus(r.Context(), centerID, center.Status(body.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	centerID, err := id.ParseCenterID(chi.URLParam(r, "centerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "date must be YYYY-MM-DD"))
		return
	}
	avail, err := h.schedules.AvailableSlots(r.Context(), centerID, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"center_id": centerID,
		"date":      date.Format("2006-01-02"),
		"open":      !avail.Closed(),
		"slots":     avail.Slots(),
	})
}

func (h *Handler) handleMonthSchedule(w http.ResponseWriter, r *http.Request) {
	centerID, err := id.ParseCenterID(chi.URLParam(r, "centerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	month, err := id.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ledger, err := h.schedules.Month(r.Context(), centerID, month)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ledger)
}
