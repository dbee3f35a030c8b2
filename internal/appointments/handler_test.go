package appointments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/api/respond"
	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/internal/session"
)

func newTestHandler(bookStore *stubBookingStore, store *memStore) *Handler {
	booking := NewBookingService(bookStore, &recordingPublisher{}, nil, nil)
	svc := NewService(store, &recordingPublisher{}, nil, nil)
	return NewHandler(booking, svc, time.UTC, 0, nil)
}

func doJSON(t *testing.T, h *Handler, sess *session.Session, method, target string, body any) (*httptest.ResponseRecorder, respond.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if sess != nil {
		req = req.WithContext(session.WithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	var env respond.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func bookBody(practitionerID uuid.UUID) map[string]any {
	return map[string]any{
		"practitionerId":  practitionerID.String(),
		"specialtyId":     uuid.NewString(),
		"date":            "2026-09-07",
		"time":            "10:00",
		"durationMinutes": 30,
	}
}

func TestHandlerBookCreatesRequested(t *testing.T) {
	bookStore := &stubBookingStore{}
	h := newTestHandler(bookStore, newMemStore())
	sess := &session.Session{UserID: uuid.New(), Role: session.RolePatient}

	rec, env := doJSON(t, h, sess, http.MethodPost, "/", bookBody(uuid.New()))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)
	data := env.Data.(map[string]any)
	assert.Equal(t, string(StateRequested), data["state"])
	assert.Equal(t, "2026-09-07", data["date"])
	assert.Equal(t, "10:00", data["time"])
	assert.Equal(t, sess.UserID.String(), data["patientId"])
	require.Len(t, bookStore.inserted, 1)
}

func TestHandlerBookSlotTaken(t *testing.T) {
	starts := time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC)
	bookStore := &stubBookingStore{
		practitionerBusy: []schedule.Interval{{Start: starts, End: starts.Add(30 * time.Minute)}},
	}
	h := newTestHandler(bookStore, newMemStore())
	sess := &session.Session{UserID: uuid.New(), Role: session.RolePatient}

	rec, env := doJSON(t, h, sess, http.MethodPost, "/", bookBody(uuid.New()))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, respond.CodeSlotUnavailable, env.ErrorCode)
	assert.Empty(t, bookStore.inserted)
}

func TestHandlerBookRequiresSession(t *testing.T) {
	h := newTestHandler(&stubBookingStore{}, newMemStore())

	rec, env := doJSON(t, h, nil, http.MethodPost, "/", bookBody(uuid.New()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, respond.CodeUnauthorized, env.ErrorCode)
}

func TestHandlerBookValidation(t *testing.T) {
	h := newTestHandler(&stubBookingStore{}, newMemStore())
	sess := &session.Session{UserID: uuid.New(), Role: session.RolePatient}

	t.Run("duration out of range", func(t *testing.T) {
		body := bookBody(uuid.New())
		body["durationMinutes"] = 0
		rec, env := doJSON(t, h, sess, http.MethodPost, "/", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, respond.CodeValidation, env.ErrorCode)
	})

	t.Run("bad date", func(t *testing.T) {
		body := bookBody(uuid.New())
		body["date"] = "07/09/2026"
		rec, env := doJSON(t, h, sess, http.MethodPost, "/", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, respond.CodeValidation, env.ErrorCode)
	})

	t.Run("patient cannot book for another patient", func(t *testing.T) {
		body := bookBody(uuid.New())
		body["patientId"] = uuid.NewString()
		rec, env := doJSON(t, h, sess, http.MethodPost, "/", body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, respond.CodeUnauthorized, env.ErrorCode)
	})
}

func TestHandlerCompleteFromRequestedConflicts(t *testing.T) {
	appt := newTestAppointment(StateRequested)
	h := newTestHandler(&stubBookingStore{}, newMemStore(appt))

	rec, env := doJSON(t, h, practitionerSession(appt), http.MethodPost,
		fmt.Sprintf("/%s/complete", appt.ID), map[string]any{"review": "all good"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, respond.CodeIllegalTransition, env.ErrorCode)
}

func TestHandlerAcceptThenGet(t *testing.T) {
	appt := newTestAppointment(StateRequested)
	h := newTestHandler(&stubBookingStore{}, newMemStore(appt))

	rec, env := doJSON(t, h, practitionerSession(appt), http.MethodPost,
		fmt.Sprintf("/%s/accept", appt.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(StateAccepted), env.Data.(map[string]any)["state"])

	rec, env = doJSON(t, h, patientSession(appt), http.MethodGet,
		fmt.Sprintf("/%s", appt.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(StateAccepted), env.Data.(map[string]any)["state"])
}

func TestHandlerGetUnknown(t *testing.T) {
	h := newTestHandler(&stubBookingStore{}, newMemStore())
	sess := &session.Session{UserID: uuid.New(), Role: session.RoleAdmin}

	rec, env := doJSON(t, h, sess, http.MethodGet, "/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, respond.CodeNotFound, env.ErrorCode)
}

func TestHandlerRateTwice(t *testing.T) {
	appt := newTestAppointment(StateCompleted)
	h := newTestHandler(&stubBookingStore{}, newMemStore(appt))
	sess := patientSession(appt)
	target := fmt.Sprintf("/%s/rating", appt.ID)
	body := map[string]any{"score": 5, "comment": "excellent"}

	rec, env := doJSON(t, h, sess, http.MethodPost, target, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 5, env.Data.(map[string]any)["score"])

	rec, env = doJSON(t, h, sess, http.MethodPost, target, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, respond.CodeValidation, env.ErrorCode)
}

func TestHandlerListOwnership(t *testing.T) {
	appt := newTestAppointment(StateAccepted)
	h := newTestHandler(&stubBookingStore{}, newMemStore(appt))

	rec, env := doJSON(t, h, patientSession(appt), http.MethodGet,
		"/patient/"+appt.PatientID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data.([]any), 1)

	rec, env = doJSON(t, h, patientSession(appt), http.MethodGet,
		"/practitioner/"+appt.PractitionerID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, respond.CodeUnauthorized, env.ErrorCode)
}
