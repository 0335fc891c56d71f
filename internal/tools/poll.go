package tools

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emberfx/emberfx/internal/observe"
	"github.com/emberfx/emberfx/internal/poller"
)

// smartPollArgs is the JSON-decoded input for smart_poll_result.
type smartPollArgs struct {
	// RequestID is the job handle returned by a generate call. Required.
	RequestID string `json:"request_id"`
}

// timeoutReply is the payload returned when a poll session hits its ceiling
// with the job still in flight. It mirrors the last observed status so the
// caller can show progress, plus an explicit call-again instruction.
type timeoutReply struct {
	RequestID  string `json:"request_id"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	ResultURL  string `json:"result_url"`
	EffectType string `json:"effect_type"`
	Message    string `json:"message"`
}

func registerSmartPollResult(server *mcp.Server, r *Registry) {
	server.AddTool(&mcp.Tool{
		Name:        "smart_poll_result",
		Description: "Smart polling tool that automatically checks the status of a generation task. Polls every 15s for up to 120s total. Returns final result or progress if still processing. Requires Authentication via Bearer token.\nTip for smart polling: In the video generation task, you should call this tool multiple times to get the latest progress.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"request_id": {
					Type:        "string",
					Description: "The request ID returned from a generate call",
				},
			},
			Required: []string{"request_id"},
		},
	}, r.instrument("smart_poll_result", r.smartPollResult))
}

func (r *Registry) smartPollResult(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	var args smartPollArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgument(err.Error()), nil
	}
	if args.RequestID == "" {
		return invalidArgument("request_id is required"), nil
	}

	r.metrics.PollStarted(ctx)
	defer r.metrics.PollFinished(ctx)

	outcome, err := r.poller.Poll(ctx, args.RequestID)
	if err != nil {
		r.metrics.RecordUpstreamError(ctx, "job_status")
		return upstreamFailure(err), nil
	}
	r.metrics.RecordPollSession(ctx, outcome.Checks)

	observe.Logger(ctx).Info("poll session finished",
		"request_id", args.RequestID,
		"outcome", outcome.Kind,
		"checks", outcome.Checks,
		"elapsed", outcome.Elapsed,
	)

	if outcome.Kind == poller.TimedOut {
		// Echo the caller's request_id even when the status payload omits it.
		requestID := outcome.Status.RequestID
		if requestID == "" {
			requestID = args.RequestID
		}
		return jsonResult(timeoutReply{
			RequestID:  requestID,
			Status:     string(outcome.Status.Status),
			Progress:   outcome.Status.Progress,
			ResultURL:  outcome.Status.ResultURL,
			EffectType: outcome.Status.EffectType,
			Message:    "Task is still processing, please call this tool again",
		})
	}

	// Terminal, whether the job succeeded or failed. The raw status payload
	// carries everything the caller needs, including the failure message.
	return jsonResult(outcome.Status)
}
