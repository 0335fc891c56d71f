// Package mock provides a scriptable in-memory implementation of the
// Eternal API surface for tests.
package mock

import (
	"context"
	"sync"

	"github.com/emberfx/emberfx/pkg/eternal"
)

// ListEffectsCall records the arguments of one ListEffects invocation.
type ListEffectsCall struct {
	EffectType eternal.EffectType
	Page       int
}

// SubmitEffectCall records the arguments of one SubmitEffectJob invocation.
type SubmitEffectCall struct {
	EffectID string
	Images   []string
}

// SubmitCustomCall records the arguments of one SubmitCustomJob invocation.
type SubmitCustomCall struct {
	Prompt string
	Type   eternal.EffectType
	Images []string
}

// StatusStep is one scripted answer for a JobStatus call: either a status
// or an error.
type StatusStep struct {
	Status *eternal.JobStatus
	Err    error
}

// Client is a scriptable stand-in for *eternal.Client. Configure the
// Result/Err fields before use; Calls slices record every invocation.
// Safe for concurrent use.
type Client struct {
	mu sync.Mutex

	ListEffectsResult *eternal.EffectPage
	ListEffectsErr    error
	ListEffectsCalls  []ListEffectsCall

	SubmitEffectResult *eternal.Receipt
	SubmitEffectErr    error
	SubmitEffectCalls  []SubmitEffectCall

	SubmitCustomResult *eternal.Receipt
	SubmitCustomErr    error
	SubmitCustomCalls  []SubmitCustomCall

	// StatusScript is consumed one step per JobStatus call. When the script
	// is exhausted the last step repeats.
	StatusScript   []StatusStep
	JobStatusCalls []string

	FetchBytesResult      []byte
	FetchBytesContentType string
	FetchBytesErr         error
	FetchBytesCalls       []string
}

// ListEffects returns the configured page or error.
func (c *Client) ListEffects(_ context.Context, effectType eternal.EffectType, page int) (*eternal.EffectPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ListEffectsCalls = append(c.ListEffectsCalls, ListEffectsCall{EffectType: effectType, Page: page})
	if c.ListEffectsErr != nil {
		return nil, c.ListEffectsErr
	}
	if c.ListEffectsResult != nil {
		return c.ListEffectsResult, nil
	}
	return &eternal.EffectPage{}, nil
}

// SubmitEffectJob returns the configured receipt or error.
func (c *Client) SubmitEffectJob(_ context.Context, effectID string, images []string) (*eternal.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SubmitEffectCalls = append(c.SubmitEffectCalls, SubmitEffectCall{EffectID: effectID, Images: images})
	if c.SubmitEffectErr != nil {
		return nil, c.SubmitEffectErr
	}
	if c.SubmitEffectResult != nil {
		return c.SubmitEffectResult, nil
	}
	return &eternal.Receipt{RequestID: "mock-request", Status: eternal.StatePending}, nil
}

// SubmitCustomJob returns the configured receipt or error.
func (c *Client) SubmitCustomJob(_ context.Context, prompt string, outputType eternal.EffectType, images []string) (*eternal.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SubmitCustomCalls = append(c.SubmitCustomCalls, SubmitCustomCall{Prompt: prompt, Type: outputType, Images: images})
	if c.SubmitCustomErr != nil {
		return nil, c.SubmitCustomErr
	}
	if c.SubmitCustomResult != nil {
		return c.SubmitCustomResult, nil
	}
	return &eternal.Receipt{RequestID: "mock-request", Status: eternal.StatePending}, nil
}

// JobStatus consumes the next step of StatusScript. Calls past the end of
// the script repeat the final step.
func (c *Client) JobStatus(_ context.Context, requestID string) (*eternal.JobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.JobStatusCalls = append(c.JobStatusCalls, requestID)

	if len(c.StatusScript) == 0 {
		return &eternal.JobStatus{RequestID: requestID, Status: eternal.StatePending}, nil
	}
	idx := len(c.JobStatusCalls) - 1
	if idx >= len(c.StatusScript) {
		idx = len(c.StatusScript) - 1
	}
	step := c.StatusScript[idx]
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Status, nil
}

// FetchBytes returns the configured payload or error.
func (c *Client) FetchBytes(_ context.Context, rawURL string) ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FetchBytesCalls = append(c.FetchBytesCalls, rawURL)
	if c.FetchBytesErr != nil {
		return nil, "", c.FetchBytesErr
	}
	return c.FetchBytesResult, c.FetchBytesContentType, nil
}

// Calls returns the total number of upstream calls recorded across all
// operations. Handy for asserting that validation failures touch the
// network zero times.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ListEffectsCalls) + len(c.SubmitEffectCalls) +
		len(c.SubmitCustomCalls) + len(c.JobStatusCalls) + len(c.FetchBytesCalls)
}
