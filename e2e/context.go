// Package e2e drives black-box scenarios against a running agentdir
// deployment. The target is addressed by E2E_BASE_URL; no in-process state is
// shared with the service under test.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext performs HTTP calls and records the last response so assertion
// steps can inspect it. One context backs all steps of a scenario.
type TestContext struct {
	baseURL string
	apiKey  string
	client  *http.Client

	forwardedFor string
	lastStatus   int
	lastBody     []byte
	lastHeaders  http.Header
}

// NewTestContext builds a context targeting baseURL. apiKey is attached to
// API requests; pass the key of the deployment under test.
func NewTestContext(baseURL, apiKey string) *TestContext {
	return &TestContext{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state so scenarios stay independent.
func (tc *TestContext) Reset() {
	tc.forwardedFor = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
}

// SetForwardedFor makes subsequent requests claim the given client IP.
// Scenarios use distinct IPs so rate limit budgets never bleed between them.
func (tc *TestContext) SetForwardedFor(ip string) {
	tc.forwardedFor = ip
}

// POST sends a JSON body with the configured API key.
func (tc *TestContext) POST(path string, body any) error {
	return tc.post(path, body, true)
}

// POSTWithoutAuth sends a JSON body with no API key attached.
func (tc *TestContext) POSTWithoutAuth(path string, body any) error {
	return tc.post(path, body, false)
}

func (tc *TestContext) post(path string, body any, withKey bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if withKey && tc.apiKey != "" {
		req.Header.Set("X-API-Key", tc.apiKey)
	}

	return tc.do(req)
}

// GET sends a GET request with optional extra headers.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	if tc.forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", tc.forwardedFor)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	tc.lastHeaders = resp.Header
	return nil
}

// GetLastResponseStatus returns the status code of the last response.
func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

// GetLastResponseBody returns the raw body of the last response.
func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// GetLastResponseHeader returns one header value from the last response.
func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.lastHeaders == nil {
		return ""
	}
	return tc.lastHeaders.Get(name)
}

// GetResponseField resolves a top-level field from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var payload map[string]any
	if err := json.Unmarshal(tc.lastBody, &payload); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	value, ok := payload[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return value, nil
}
