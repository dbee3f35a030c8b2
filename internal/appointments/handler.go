package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/api/respond"
	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/internal/session"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Handler exposes booking and lifecycle endpoints.
type Handler struct {
	booking *BookingService
	service *Service
	loc     *time.Location
	maxMins int
	logger  *logging.Logger
}

// NewHandler creates the appointments HTTP handler. maxDurationMins caps the
// requested appointment length; zero means 8 hours.
func NewHandler(booking *BookingService, service *Service, loc *time.Location, maxDurationMins int, logger *logging.Logger) *Handler {
	if booking == nil || service == nil {
		panic("appointments: booking and lifecycle services required")
	}
	if loc == nil {
		loc = time.Local
	}
	if maxDurationMins <= 0 {
		maxDurationMins = 8 * 60
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{booking: booking, service: service, loc: loc, maxMins: maxDurationMins, logger: logger}
}

// Routes returns the appointment routes, mounted under /appointments.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Book)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/reject", h.Reject)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/rating", h.Rate)
	r.Get("/patient/{patientID}", h.ListForPatient)
	r.Get("/practitioner/{practitionerID}", h.ListForPractitioner)
	return r
}

type appointmentPayload struct {
	ID                  string          `json:"id"`
	PatientID           string          `json:"patientId"`
	PractitionerID      string          `json:"practitionerId"`
	SpecialtyID         string          `json:"specialtyId"`
	Date                string          `json:"date"`
	Time                string          `json:"time"`
	DurationMinutes     int             `json:"durationMinutes"`
	State               string          `json:"state"`
	PatientComment      string          `json:"patientComment,omitempty"`
	PractitionerComment string          `json:"practitionerComment,omitempty"`
	Review              string          `json:"review,omitempty"`
	ClinicalRecord      *ClinicalRecord `json:"clinicalRecord,omitempty"`
	ClinicalFields      []ClinicalField `json:"clinicalFields,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

func (h *Handler) payload(a *Appointment, fields []ClinicalField) appointmentPayload {
	local := a.StartsAt.In(h.loc)
	return appointmentPayload{
		ID:                  a.ID.String(),
		PatientID:           a.PatientID.String(),
		PractitionerID:      a.PractitionerID.String(),
		SpecialtyID:         a.SpecialtyID.String(),
		Date:                local.Format("2006-01-02"),
		Time:                local.Format("15:04"),
		DurationMinutes:     a.DurationMinutes,
		State:               string(a.State),
		PatientComment:      a.PatientComment,
		PractitionerComment: a.PractitionerComment,
		Review:              a.Review,
		ClinicalRecord:      a.ClinicalRecord,
		ClinicalFields:      fields,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

// writeError maps domain errors onto the response envelope.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	var terr *IllegalTransitionError
	switch {
	case errors.As(err, &verr):
		respond.Fail(w, http.StatusUnprocessableEntity, respond.CodeValidation, verr.Error())
	case errors.Is(err, ErrSlotUnavailable):
		respond.Fail(w, http.StatusConflict, respond.CodeSlotUnavailable, "the selected slot is no longer available, please pick another")
	case errors.As(err, &terr):
		respond.Fail(w, http.StatusConflict, respond.CodeIllegalTransition, terr.Error())
	case errors.Is(err, ErrForbidden):
		respond.Fail(w, http.StatusForbidden, respond.CodeUnauthorized, "not allowed")
	case errors.Is(err, ErrNotFound):
		respond.Fail(w, http.StatusNotFound, respond.CodeNotFound, "appointment not found")
	case errors.Is(err, ErrAlreadyRated):
		respond.Fail(w, http.StatusConflict, respond.CodeValidation, "this appointment has already been rated")
	default:
		h.logger.Error("appointments request failed", "error", err)
		respond.Fail(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
	}
}

type bookRequest struct {
	PractitionerID  string `json:"practitionerId"`
	PatientID       string `json:"patientId,omitempty"`
	SpecialtyID     string `json:"specialtyId"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"durationMinutes"`
	Comment         string `json:"comment,omitempty"`
}

// Book creates an appointment in state requested.
// POST /appointments
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "authentication required")
		return
	}

	var body bookRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid JSON body")
		return
	}

	practitionerID, err := uuid.Parse(body.PractitionerID)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid practitioner id")
		return
	}
	specialtyID, err := uuid.Parse(body.SpecialtyID)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid specialty id")
		return
	}

	// Patients always book for themselves; only admins may book on behalf.
	patientID := sess.UserID
	if body.PatientID != "" {
		requested, err := uuid.Parse(body.PatientID)
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid patient id")
			return
		}
		if !sess.ActsFor(requested) {
			respond.Fail(w, http.StatusForbidden, respond.CodeUnauthorized, "cannot book for another patient")
			return
		}
		patientID = requested
	}

	startsAt, err := h.parseSlot(body.Date, body.Time)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	if body.DurationMinutes <= 0 || body.DurationMinutes > h.maxMins {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "durationMinutes out of range")
		return
	}

	appt, err := h.booking.Book(r.Context(), BookingRequest{
		PractitionerID:  practitionerID,
		PatientID:       patientID,
		SpecialtyID:     specialtyID,
		StartsAt:        startsAt,
		DurationMinutes: body.DurationMinutes,
		Comment:         body.Comment,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, http.StatusCreated, h.payload(appt, nil))
}

// Get returns one appointment with its clinical fields.
// GET /appointments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid appointment id")
		return
	}

	appt, err := h.service.Get(r.Context(), sess, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	fields, err := h.service.ClinicalFields(r.Context(), sess, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, http.StatusOK, h.payload(appt, fields))
}

type actionRequest struct {
	Comment string `json:"comment,omitempty"`
}

// Accept confirms a requested appointment.
// POST /appointments/{id}/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, func(sess *session.Session, id uuid.UUID) (*Appointment, error) {
		return h.service.Accept(r.Context(), sess, id)
	})
}

// Reject declines a requested appointment.
// POST /appointments/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid JSON body")
		return
	}
	h.runTransition(w, r, func(sess *session.Session, id uuid.UUID) (*Appointment, error) {
		return h.service.Reject(r.Context(), sess, id, body.Comment)
	})
}

// Cancel cancels a requested or accepted appointment.
// POST /appointments/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid JSON body")
		return
	}
	h.runTransition(w, r, func(sess *session.Session, id uuid.UUID) (*Appointment, error) {
		return h.service.Cancel(r.Context(), sess, id, body.Comment)
	})
}

type completeRequest struct {
	Review         string          `json:"review"`
	ClinicalRecord *ClinicalRecord `json:"clinicalRecord,omitempty"`
	ClinicalFields []ClinicalField `json:"clinicalFields,omitempty"`
}

// Complete finishes an accepted appointment.
// POST /appointments/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var body completeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid JSON body")
		return
	}
	h.runTransition(w, r, func(sess *session.Session, id uuid.UUID) (*Appointment, error) {
		return h.service.Complete(r.Context(), sess, id, body.Review, body.ClinicalRecord, body.ClinicalFields)
	})
}

type rateRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// Rate stores the patient's one-time rating.
// POST /appointments/{id}/rating
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid appointment id")
		return
	}
	var body rateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid JSON body")
		return
	}

	rating, err := h.service.Rate(r.Context(), sess, id, body.Score, body.Comment)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, http.StatusCreated, map[string]any{
		"appointmentId": rating.AppointmentID.String(),
		"score":         rating.Score,
		"comment":       rating.Comment,
		"createdAt":     rating.CreatedAt,
	})
}

// ListForPatient returns a patient's appointments.
// GET /appointments/patient/{patientID}
func (h *Handler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid patient id")
		return
	}
	appts, err := h.service.ListForPatient(r.Context(), sess, patientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeList(w, appts)
}

// ListForPractitioner returns a practitioner's appointments.
// GET /appointments/practitioner/{practitionerID}
func (h *Handler) ListForPractitioner(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	practitionerID, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid practitioner id")
		return
	}
	appts, err := h.service.ListForPractitioner(r.Context(), sess, practitionerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeList(w, appts)
}

func (h *Handler) writeList(w http.ResponseWriter, appts []*Appointment) {
	out := make([]appointmentPayload, 0, len(appts))
	for _, a := range appts {
		out = append(out, h.payload(a, nil))
	}
	respond.OK(w, http.StatusOK, out)
}

func (h *Handler) runTransition(w http.ResponseWriter, r *http.Request, fn func(*session.Session, uuid.UUID) (*Appointment, error)) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.CodeValidation, "invalid appointment id")
		return
	}
	appt, err := fn(sess, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, http.StatusOK, h.payload(appt, nil))
}

// parseSlot combines a YYYY-MM-DD date and HH:MM time into an instant in
// clinic time.
func (h *Handler) parseSlot(date, clock string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, h.loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	ct, err := schedule.ParseClock(clock)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "time", Reason: "must be HH:MM"}
	}
	return ct.At(day, h.loc), nil
}
