package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/availability"
	httpmiddleware "github.com/clinicdesk/clinic-api/internal/http/middleware"
	"github.com/clinicdesk/clinic-api/internal/schedule"
)

const testSecret = "router-test-secret"

type fakeAvailabilityStore struct {
	weeks map[uuid.UUID]schedule.WeekWindows
}

func (s *fakeAvailabilityStore) Get(_ context.Context, practitionerID uuid.UUID) (schedule.WeekWindows, error) {
	return s.weeks[practitionerID], nil
}

func (s *fakeAvailabilityStore) Set(_ context.Context, practitionerID uuid.UUID, week schedule.WeekWindows) error {
	if s.weeks == nil {
		s.weeks = make(map[uuid.UUID]schedule.WeekWindows)
	}
	s.weeks[practitionerID] = week
	return nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := availability.NewService(&fakeAvailabilityStore{}, availability.DefaultPolicy(), nil)
	return New(&Config{
		AvailabilityHandler: cfgAvailabilityHandler(svc),
		PortalJWTSecret:     testSecret,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})
}

func cfgAvailabilityHandler(svc *availability.Service) *availability.Handler {
	return availability.NewHandler(svc, nil)
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := httpmiddleware.PortalClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestHealthIsPublic(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "ok", body.Data.Status)
}

func TestMetricsIsPublic(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPortalRequiresToken(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/practitioners/"+uuid.NewString()+"/availability", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPortalRoutesReachableWithToken(t *testing.T) {
	r := testRouter(t)
	practitionerID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/practitioners/"+practitionerID.String()+"/availability", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, practitionerID, "practitioner"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
