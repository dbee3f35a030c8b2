package availability

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/api/respond"
	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/internal/session"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Handler provides HTTP endpoints for weekly availability management.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an availability HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("availability: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the availability routes, mounted under /practitioners.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{practitionerID}/availability", h.Get)
	r.Put("/{practitionerID}/availability", h.Update)
	return r
}

type dayPayload struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

var weekdayNames = map[string]schedule.Weekday{
	"monday":    schedule.Monday,
	"tuesday":   schedule.Tuesday,
	"wednesday": schedule.Wednesday,
	"thursday":  schedule.Thursday,
	"friday":    schedule.Friday,
	"saturday":  schedule.Saturday,
	"sunday":    schedule.Sunday,
}

func weekToPayload(week schedule.WeekWindows) map[string]dayPayload {
	out := make(map[string]dayPayload, len(week))
	for name, d := range weekdayNames {
		if w, ok := week[d]; ok {
			out[name] = dayPayload{Enabled: w.Enabled, Start: w.Start.String(), End: w.End.String()}
		}
	}
	return out
}

// Get returns the practitioner's weekly schedule.
// GET /practitioners/{practitionerID}/availability
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	practitionerID, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid practitioner id")
		return
	}

	week, err := h.service.Get(r.Context(), practitionerID)
	if err != nil {
		h.logger.Error("failed to load availability", "practitioner_id", practitionerID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
		return
	}
	respond.OK(w, http.StatusOK, weekToPayload(week))
}

// Update replaces the practitioner's weekly schedule.
// PUT /practitioners/{practitionerID}/availability
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	practitionerID, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid practitioner id")
		return
	}

	sess, ok := session.FromContext(r.Context())
	if !ok || sess.Role == session.RolePatient || !sess.ActsFor(practitionerID) {
		respond.Fail(w, http.StatusForbidden, respond.CodeUnauthorized, "only the owning practitioner may change availability")
		return
	}

	var body map[string]dayPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid JSON body")
		return
	}

	week := schedule.WeekWindows{}
	for name, payload := range body {
		d, ok := weekdayNames[name]
		if !ok {
			respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "unknown weekday "+name)
			return
		}
		start, err := schedule.ParseClock(payload.Start)
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, name+": start must be HH:MM")
			return
		}
		end, err := schedule.ParseClock(payload.End)
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, name+": end must be HH:MM")
			return
		}
		week[d] = schedule.DayWindow{Enabled: payload.Enabled, Start: start, End: end}
	}

	if err := h.service.Set(r.Context(), practitionerID, week); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Fail(w, http.StatusUnprocessableEntity, respond.CodeValidation, verr.Error())
			return
		}
		h.logger.Error("failed to save availability", "practitioner_id", practitionerID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
		return
	}

	week, err = h.service.Get(r.Context(), practitionerID)
	if err != nil {
		h.logger.Error("failed to reload availability", "practitioner_id", practitionerID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
		return
	}
	respond.OK(w, http.StatusOK, weekToPayload(week))
}
