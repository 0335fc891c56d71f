// Package eternal provides an HTTP client for the Eternal visual-effects
// generation API: effect catalogue listing, effect and custom-prompt job
// submission, job status polling, and media download.
//
// All requests are authenticated with an x-api-key header. The base URL is
// overridable for testing and for self-hosted deployments.
package eternal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public Eternal API endpoint.
	DefaultBaseURL = "https://open.eternalai.org"

	effectsPath  = "/uncensored-ai/effects"
	generatePath = "/generate"
	customPath   = "/base/generate"
	pollPath     = "/poll-result"

	defaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of an upstream error body is retained
	// in an APIError.
	maxErrorBody = 2048
)

// APIError is returned when the upstream responds with a non-2xx status.
// Transport-level failures (DNS, TLS, timeouts) are returned as wrapped
// errors instead and do not match this type.
type APIError struct {
	// StatusCode is the HTTP status returned by the upstream.
	StatusCode int

	// Body is the (truncated) response body, often a JSON error payload.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eternal: upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (e.g. for tests or a proxy).
// A trailing slash is trimmed.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		for len(base) > 0 && base[len(base)-1] == '/' {
			base = base[:len(base)-1]
		}
		c.baseURL = base
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
// Ignored when WithHTTPClient is also given after it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// Client issues authenticated requests against the Eternal API.
// It is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates an Eternal API client. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("eternal: apiKey must not be empty")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ListEffects returns one page of the effect catalogue. effectType may be
// empty to list all types; page values < 1 are omitted and the upstream
// default applies. Filtering and pagination are upstream concerns, no
// local filtering happens here.
func (c *Client) ListEffects(ctx context.Context, effectType EffectType, page int) (*EffectPage, error) {
	q := url.Values{}
	if effectType != "" {
		q.Set("effect_type", string(effectType))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	endpoint := c.baseURL + effectsPath
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var out EffectPage
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("eternal: list effects: %w", err)
	}
	return &out, nil
}

// effectJobRequest is the POST /generate payload.
type effectJobRequest struct {
	EffectID string   `json:"effect_id"`
	Images   []string `json:"images,omitempty"`
}

// SubmitEffectJob submits a generation job that applies the named effect to
// the given input images (URLs or base64-encoded blobs, passed through
// unchanged). It returns immediately with a receipt; completion is tracked
// by polling.
func (c *Client) SubmitEffectJob(ctx context.Context, effectID string, images []string) (*Receipt, error) {
	if effectID == "" {
		return nil, errors.New("eternal: effectID must not be empty")
	}
	receipt, err := c.postGenerate(ctx, c.baseURL+generatePath, effectJobRequest{
		EffectID: effectID,
		Images:   images,
	})
	if err != nil {
		return nil, fmt.Errorf("eternal: submit effect job: %w", err)
	}
	return receipt, nil
}

// customJobRequest is the POST /base/generate payload.
type customJobRequest struct {
	Prompt string     `json:"prompt"`
	Type   EffectType `json:"type"`
	Images []string   `json:"images,omitempty"`
}

// SubmitCustomJob submits a free-prompt generation job for the given output
// type. Same non-blocking contract as SubmitEffectJob.
func (c *Client) SubmitCustomJob(ctx context.Context, prompt string, outputType EffectType, images []string) (*Receipt, error) {
	if prompt == "" {
		return nil, errors.New("eternal: prompt must not be empty")
	}
	if !outputType.IsValid() {
		return nil, fmt.Errorf("eternal: invalid output type %q", outputType)
	}
	receipt, err := c.postGenerate(ctx, c.baseURL+customPath, customJobRequest{
		Prompt: prompt,
		Type:   outputType,
		Images: images,
	})
	if err != nil {
		return nil, fmt.Errorf("eternal: submit custom job: %w", err)
	}
	return receipt, nil
}

// JobStatus fetches the current status of a previously submitted job.
// The upstream owns all lifecycle tracking; this is a plain re-fetch.
func (c *Client) JobStatus(ctx context.Context, requestID string) (*JobStatus, error) {
	if requestID == "" {
		return nil, errors.New("eternal: requestID must not be empty")
	}
	var out JobStatus
	if err := c.getJSON(ctx, c.baseURL+pollPath+"/"+url.PathEscape(requestID), &out); err != nil {
		return nil, fmt.Errorf("eternal: job status %q: %w", requestID, err)
	}
	if out.RequestID == "" {
		out.RequestID = requestID
	}
	return &out, nil
}

// FetchBytes downloads the resource at rawURL and returns its bytes and the
// Content-Type reported by the server. Used for inline image rendering;
// the same x-api-key header is NOT attached since media URLs are plain
// CDN links.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("eternal: fetch %q: %w", rawURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("eternal: fetch %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("eternal: fetch %q: %w", rawURL, readAPIError(resp))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("eternal: fetch %q: read body: %w", rawURL, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// ---- internals ----

// getJSON performs an authenticated GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// postGenerate performs an authenticated POST of a JSON payload and
// normalises the generation response.
func (c *Client) postGenerate(ctx context.Context, endpoint string, payload any) (*Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseReceipt(raw)
}

// setHeaders attaches the standard auth and accept headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
}

// readAPIError drains (a bounded amount of) the response body into an APIError.
func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}

// parseReceipt normalises the two generation-response shapes the upstream
// emits:
//
//	flat:   {"request_id": "...", "status": "...", "result": "...", "progress": 0}
//	nested: {"status": 1, "data": {"request_id": ..., "status": ..., ...}}
func parseReceipt(raw []byte) (*Receipt, error) {
	var envelope struct {
		RequestID string          `json:"request_id"`
		Status    json.RawMessage `json:"status"`
		Result    string          `json:"result"`
		Progress  int             `json:"progress"`
		Data      *struct {
			RequestID string   `json:"request_id"`
			Status    JobState `json:"status"`
			Result    string   `json:"result"`
			Progress  int      `json:"progress"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}

	if envelope.Data != nil {
		r := &Receipt{
			RequestID: envelope.Data.RequestID,
			Status:    envelope.Data.Status,
			Result:    envelope.Data.Result,
			Progress:  envelope.Data.Progress,
		}
		if r.RequestID == "" {
			r.RequestID = envelope.RequestID
		}
		// In the nested shape the top-level status is a numeric envelope code.
		var code int
		if len(envelope.Status) > 0 && json.Unmarshal(envelope.Status, &code) == nil {
			r.StatusCode = code
		}
		return r, nil
	}

	r := &Receipt{
		RequestID: envelope.RequestID,
		Result:    envelope.Result,
		Progress:  envelope.Progress,
	}
	var state JobState
	if len(envelope.Status) > 0 && json.Unmarshal(envelope.Status, &state) == nil {
		r.Status = state
	}
	return r, nil
}
