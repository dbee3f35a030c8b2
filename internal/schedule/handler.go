package schedule

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/api/respond"
	"github.com/clinicdesk/clinic-api/internal/session"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// HandlerConfig bounds what callers may ask the discovery engine for.
type HandlerConfig struct {
	DefaultDurationMins int
	DefaultHorizonDays  int
	MaxHorizonDays      int
}

// Handler exposes the slot discovery endpoints.
type Handler struct {
	engine *Engine
	cfg    HandlerConfig
	logger *logging.Logger
}

func NewHandler(engine *Engine, cfg HandlerConfig, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("schedule: engine required")
	}
	if cfg.DefaultDurationMins <= 0 {
		cfg.DefaultDurationMins = 30
	}
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = 30
	}
	if cfg.MaxHorizonDays <= 0 {
		cfg.MaxHorizonDays = 90
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, cfg: cfg, logger: logger}
}

// Routes returns the discovery routes, mounted under /practitioners.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{practitionerID}/slots/dates", h.Dates)
	r.Get("/{practitionerID}/slots/times", h.Times)
	return r
}

// Dates lists the calendar dates with at least one free slot.
// GET /practitioners/{practitionerID}/slots/dates?duration=30&from=2026-09-07&horizon=30
func (h *Handler) Dates(w http.ResponseWriter, r *http.Request) {
	practitionerID, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid practitioner id")
		return
	}
	duration, ok := h.queryDuration(w, r)
	if !ok {
		return
	}

	horizon := h.cfg.DefaultHorizonDays
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		horizon, err = strconv.Atoi(raw)
		if err != nil || horizon <= 0 || horizon > h.cfg.MaxHorizonDays {
			respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "horizon must be a positive number of days within the allowed window")
			return
		}
	}

	from := time.Now().In(h.engine.Location())
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.ParseInLocation("2006-01-02", raw, h.engine.Location())
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "from must be YYYY-MM-DD")
			return
		}
	}

	dates, err := h.engine.BookableDates(r.Context(), practitionerID, duration, horizon, from, h.patientID(r))
	if err != nil {
		h.logger.Error("bookable dates lookup failed", "error", err, "practitioner_id", practitionerID)
		respond.Fail(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	respond.OK(w, http.StatusOK, map[string]any{"dates": out})
}

// Times lists the free slot start times on one date.
// GET /practitioners/{practitionerID}/slots/times?date=2026-09-07&duration=30
func (h *Handler) Times(w http.ResponseWriter, r *http.Request) {
	practitionerID, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid practitioner id")
		return
	}
	duration, ok := h.queryDuration(w, r)
	if !ok {
		return
	}

	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), h.engine.Location())
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "date must be YYYY-MM-DD")
		return
	}

	times, err := h.engine.BookableTimes(r.Context(), practitionerID, date, duration, h.patientID(r))
	if err != nil {
		h.logger.Error("bookable times lookup failed", "error", err, "practitioner_id", practitionerID)
		respond.Fail(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
		return
	}

	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.In(h.engine.Location()).Format("15:04"))
	}
	respond.OK(w, http.StatusOK, map[string]any{"date": date.Format("2006-01-02"), "times": out})
}

func (h *Handler) queryDuration(w http.ResponseWriter, r *http.Request) (time.Duration, bool) {
	mins := h.cfg.DefaultDurationMins
	if raw := r.URL.Query().Get("duration"); raw != "" {
		var err error
		mins, err = strconv.Atoi(raw)
		if err != nil || mins <= 0 || mins > 8*60 {
			respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "duration must be a positive number of minutes")
			return 0, false
		}
	}
	return time.Duration(mins) * time.Minute, true
}

// patientID filters the caller's own conflicts into discovery when a patient
// is signed in.
func (h *Handler) patientID(r *http.Request) *uuid.UUID {
	sess, ok := session.FromContext(r.Context())
	if !ok || sess.Role != session.RolePatient {
		return nil
	}
	id := sess.UserID
	return &id
}
