package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// HTTPDirectory resolves contacts from the identity service, which owns user
// accounts and profiles.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// NewHTTPDirectory creates a directory against the identity service, or nil
// without a base URL.
func NewHTTPDirectory(baseURL string, client *http.Client, logger *logging.Logger) *HTTPDirectory {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPDirectory{baseURL: baseURL, client: client, logger: logger}
}

type contactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Contact implements UserDirectory.
func (d *HTTPDirectory) Contact(ctx context.Context, userID uuid.UUID) (string, string, error) {
	url := fmt.Sprintf("%s/users/%s/contact", d.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("notify: build contact request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("notify: contact lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("notify: contact lookup: status %d", resp.StatusCode)
	}

	var body contactResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("notify: decode contact: %w", err)
	}
	if body.Email == "" {
		return "", "", fmt.Errorf("notify: user %s has no email on file", userID)
	}
	return body.Name, body.Email, nil
}
