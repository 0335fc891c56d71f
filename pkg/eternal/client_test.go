package eternal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/emberfx/emberfx/pkg/eternal"
)

// newClient builds a Client pointed at the given test server.
func newClient(t *testing.T, srv *httptest.Server) *eternal.Client {
	t.Helper()
	c, err := eternal.New("test-key", eternal.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_EmptyAPIKey_ReturnsError(t *testing.T) {
	_, err := eternal.New("")
	if err == nil {
		t.Fatal("expected error for empty apiKey, got nil")
	}
}

func TestListEffects_SendsFilterAndAuth(t *testing.T) {
	var gotQuery, gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uncensored-ai/effects" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		gotQuery.Store(r.URL.RawQuery)
		gotKey.Store(r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(eternal.EffectPage{
			Effects: []eternal.Effect{
				{ID: "cartoonify", Name: "Cartoonify", Type: eternal.EffectImage},
			},
			Page:       2,
			TotalPages: 5,
			Total:      87,
		})
	}))
	defer srv.Close()

	page, err := newClient(t, srv).ListEffects(context.Background(), eternal.EffectImage, 2)
	if err != nil {
		t.Fatalf("ListEffects: %v", err)
	}
	if len(page.Effects) != 1 || page.Effects[0].ID != "cartoonify" {
		t.Errorf("unexpected effects: %+v", page.Effects)
	}
	if page.TotalPages != 5 {
		t.Errorf("TotalPages = %d, want 5", page.TotalPages)
	}
	if q := gotQuery.Load(); q != "effect_type=image&page=2" {
		t.Errorf("query = %q, want effect_type=image&page=2", q)
	}
	if k := gotKey.Load(); k != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", k)
	}
}

func TestListEffects_OmitsEmptyParams(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(eternal.EffectPage{})
	}))
	defer srv.Close()

	if _, err := newClient(t, srv).ListEffects(context.Background(), "", 0); err != nil {
		t.Fatalf("ListEffects: %v", err)
	}
	if q := gotQuery.Load(); q != "" {
		t.Errorf("query = %q, want empty", q)
	}
}

func TestSubmitEffectJob_FlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body["effect_id"] != "cartoonify" {
			http.Error(w, "wrong effect_id", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"request_id":"abc123","status":"pending","result":"","progress":0}`))
	}))
	defer srv.Close()

	receipt, err := newClient(t, srv).SubmitEffectJob(context.Background(), "cartoonify", []string{"https://x/in.png"})
	if err != nil {
		t.Fatalf("SubmitEffectJob: %v", err)
	}
	if receipt.RequestID != "abc123" {
		t.Errorf("RequestID = %q, want abc123", receipt.RequestID)
	}
	if receipt.Status != eternal.StatePending {
		t.Errorf("Status = %q, want pending", receipt.Status)
	}
}

func TestSubmitCustomJob_NestedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/base/generate" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":1,"data":{"request_id":"vid-7","status":"pending","result":"","progress":5}}`))
	}))
	defer srv.Close()

	receipt, err := newClient(t, srv).SubmitCustomJob(context.Background(), "a fox in the snow", eternal.EffectVideo, nil)
	if err != nil {
		t.Fatalf("SubmitCustomJob: %v", err)
	}
	if receipt.RequestID != "vid-7" {
		t.Errorf("RequestID = %q, want vid-7", receipt.RequestID)
	}
	if receipt.Progress != 5 {
		t.Errorf("Progress = %d, want 5", receipt.Progress)
	}
	if receipt.StatusCode != 1 {
		t.Errorf("StatusCode = %d, want 1", receipt.StatusCode)
	}
}

func TestSubmitCustomJob_InvalidType_NoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).SubmitCustomJob(context.Background(), "p", "audio", nil)
	if err == nil {
		t.Fatal("expected error for invalid type")
	}
	if calls.Load() != 0 {
		t.Errorf("upstream was called %d times, want 0", calls.Load())
	}
}

func TestJobStatus_FillsRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/poll-result/abc123" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"processing","progress":40}`))
	}))
	defer srv.Close()

	status, err := newClient(t, srv).JobStatus(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if status.RequestID != "abc123" {
		t.Errorf("RequestID = %q, want abc123 (filled from argument)", status.RequestID)
	}
	if status.Status.Terminal() {
		t.Errorf("processing should not be terminal")
	}
}

func TestJobStatus_UpstreamError_ReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unknown request"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).JobStatus(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *eternal.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

func TestFetchBytes_RoundTripsBody(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	data, contentType, err := newClient(t, srv).FetchBytes(context.Background(), srv.URL+"/out.png")
	if err != nil {
		t.Fatalf("FetchBytes: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("body mismatch: got %v", data)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q, want image/png", contentType)
	}
}

func TestJobState_Terminal(t *testing.T) {
	cases := []struct {
		state    eternal.JobState
		terminal bool
		failed   bool
	}{
		{eternal.StatePending, false, false},
		{eternal.StateProcessing, false, false},
		{eternal.StateSucceeded, true, false},
		{eternal.StateCompleted, true, false},
		{eternal.StateFailed, true, true},
		{eternal.StateError, true, true},
		// The upstream is inconsistent about casing.
		{eternal.JobState("SUCCESS"), true, false},
		{eternal.JobState("Completed"), true, false},
		{eternal.JobState("FAILED"), true, true},
		{eternal.JobState("Pending"), false, false},
	}
	for _, tc := range cases {
		if got := tc.state.Terminal(); got != tc.terminal {
			t.Errorf("%q.Terminal() = %v, want %v", tc.state, got, tc.terminal)
		}
		if got := tc.state.Failed(); got != tc.failed {
			t.Errorf("%q.Failed() = %v, want %v", tc.state, got, tc.failed)
		}
	}
}
