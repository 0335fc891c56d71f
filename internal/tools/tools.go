// Package tools implements the five MCP tools exposed by the EmberFX server:
// get_visual_effects, generate_with_effect, generate_custom_advanced,
// smart_poll_result and display_media.
//
// Each handler is a pure mapping from JSON-encoded arguments to a
// [*mcp.CallToolResult]; handlers hold no mutable state between invocations.
// Input validation happens before any network call, and every failure is
// returned as a structured result with IsError set rather than a Go error,
// so a single bad invocation never takes down the server.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emberfx/emberfx/internal/observe"
	"github.com/emberfx/emberfx/internal/poller"
	"github.com/emberfx/emberfx/pkg/eternal"
)

// API is the upstream surface the handlers need. *eternal.Client satisfies
// it; tests substitute a scripted mock.
type API interface {
	ListEffects(ctx context.Context, effectType eternal.EffectType, page int) (*eternal.EffectPage, error)
	SubmitEffectJob(ctx context.Context, effectID string, images []string) (*eternal.Receipt, error)
	SubmitCustomJob(ctx context.Context, prompt string, outputType eternal.EffectType, images []string) (*eternal.Receipt, error)
	FetchBytes(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Poller runs one bounded poll session per call. *poller.Poller satisfies it.
type Poller interface {
	Poll(ctx context.Context, requestID string) (*poller.Outcome, error)
}

// Registry holds the shared collaborators for all tools.
type Registry struct {
	api     API
	poller  Poller
	metrics *observe.Metrics
}

// NewRegistry creates a tool registry. A nil metrics argument falls back to
// the package-level default instruments.
func NewRegistry(api API, p Poller, metrics *observe.Metrics) *Registry {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Registry{
		api:     api,
		poller:  p,
		metrics: metrics,
	}
}

// RegisterAll registers every tool with the MCP server.
func (r *Registry) RegisterAll(server *mcp.Server) {
	registerGetVisualEffects(server, r)
	registerGenerateWithEffect(server, r)
	registerGenerateCustomAdvanced(server, r)
	registerSmartPollResult(server, r)
	registerDisplayMedia(server, r)
}

// handlerFunc is the shape shared by all tool implementations in this
// package. It receives the raw JSON arguments so each tool owns its own
// decoding and validation.
type handlerFunc func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error)

// instrument wraps fn with a span, duration timing and call counting.
func (r *Registry) instrument(name string, fn handlerFunc) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := observe.StartSpan(ctx, "tool/"+name)
		defer span.End()

		start := time.Now()
		result, err := fn(ctx, req.Params.Arguments)
		elapsed := time.Since(start)

		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case result != nil && result.IsError:
			status = "error"
		}
		r.metrics.RecordToolCall(ctx, name, status, elapsed.Seconds())

		observe.Logger(ctx).Debug("tool call finished",
			"tool", name,
			"status", status,
			"elapsed", elapsed,
		)
		return result, err
	}
}

// invalidArgument builds the failure result for malformed input. It is
// always produced before any network call.
func invalidArgument(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Invalid argument: " + msg}},
		IsError: true,
	}
}

// upstreamFailure builds the failure result for a failed upstream call.
func upstreamFailure(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

// textResult wraps plain text in a successful result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// jsonResult renders v as indented JSON in a successful text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tools: encode result: %w", err)
	}
	return textResult(string(data)), nil
}

// decodeArgs unmarshals raw into dst. A nil raw leaves dst at its zero value,
// matching a call with no arguments.
func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
