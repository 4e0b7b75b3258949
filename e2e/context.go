package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	jwttoken "campus/internal/jwt_token"
)

const devSigningKey = "dev-secret-key-change-in-production"

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	AdminToken       string
	UserToken        string
	UserID           string
	saved            map[string]string
}

// NewTestContext creates a new test context. Tokens are minted with
// JWT_SIGNING_KEY, falling back to the server's dev key.
func NewTestContext() (*TestContext, error) {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		signingKey = devSigningKey
	}
	jwt := jwttoken.NewJWTService(signingKey, "campus", "campus-api", time.Hour)

	ctx := context.Background()
	adminToken, err := jwt.GenerateAccessToken(ctx, "e2e-admin", jwttoken.AllPermissions)
	if err != nil {
		return nil, fmt.Errorf("mint admin token: %w", err)
	}
	userID := "e2e-user-" + uuid.NewString()[:8]
	userToken, err := jwt.GenerateAccessToken(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("mint user token: %w", err)
	}

	return &TestContext{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		AdminToken: adminToken,
		UserToken:  userToken,
		UserID:     userID,
		saved:      map[string]string{},
	}, nil
}

// Do sends a JSON request with an optional bearer token and stores the response.
func (tc *TestContext) Do(method, path string, body any, token string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.Do(http.MethodPost, path, body, "")
}

func (tc *TestContext) GET(path string) error {
	return tc.Do(http.MethodGet, path, nil, "")
}

func (tc *TestContext) AdminDo(method, path string, body any) error {
	return tc.Do(method, path, body, tc.AdminToken)
}

func (tc *TestContext) UserDo(method, path string, body any) error {
	return tc.Do(method, path, body, tc.UserToken)
}

// GetResponseField extracts a field from the JSON response. Nested fields
// use dots, as in "certificate.certificate_id".
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
		if data, ok = obj[part]; !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
	}
	return data, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}
	_, err := tc.GetResponseField(text)
	return err == nil
}

// Save remembers a value for later steps in the scenario.
func (tc *TestContext) Save(name, value string) {
	tc.saved[name] = value
}

// Saved returns a remembered value, or name itself when nothing was saved
// under it.
func (tc *TestContext) Saved(name string) string {
	if v, ok := tc.saved[name]; ok {
		return v
	}
	return name
}

func (tc *TestContext) GetUserID() string {
	return tc.UserID
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}
