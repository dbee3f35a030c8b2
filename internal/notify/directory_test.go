package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDirectoryContact(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/"+userID.String()+"/contact", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Ana","email":"ana@example.com"}`))
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL, srv.Client(), nil)
	name, email, err := dir.Contact(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", name)
	assert.Equal(t, "ana@example.com", email)
}

func TestHTTPDirectoryContactErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL, srv.Client(), nil)
	_, _, err := dir.Contact(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestHTTPDirectoryContactRequiresEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Ana","email":""}`))
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL, srv.Client(), nil)
	_, _, err := dir.Contact(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestHTTPDirectoryDisabledWithoutBaseURL(t *testing.T) {
	assert.Nil(t, NewHTTPDirectory("", nil, nil))
	assert.Nil(t, NewHTTPDirectory("   ", nil, nil))
}
