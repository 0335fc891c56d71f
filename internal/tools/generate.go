package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emberfx/emberfx/pkg/eternal"
)

// generateWithEffectArgs is the JSON-decoded input for generate_with_effect.
type generateWithEffectArgs struct {
	// EffectID identifies the visual effect to apply. Required.
	EffectID string `json:"effect_id"`

	// Images are input image URLs or base64-encoded images.
	Images []string `json:"images"`
}

// generateCustomArgs is the JSON-decoded input for generate_custom_advanced.
type generateCustomArgs struct {
	// Prompt describes the desired output. Required.
	Prompt string `json:"prompt"`

	// Type is the output kind, "image" or "video". Required.
	Type string `json:"type"`

	// Images are input image URLs or base64-encoded images.
	Images []string `json:"images"`
}

func registerGenerateWithEffect(server *mcp.Server, r *Registry) {
	server.AddTool(&mcp.Tool{
		Name:        "generate_with_effect",
		Description: "Generate image or video content using a specific visual effect. Returns a request_id for polling the result. Requires Authentication via Bearer token (set ETERNAL_AI_API_KEY environment variable).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"effect_id": {
					Type:        "string",
					Description: "The ID of the visual effect to apply",
				},
				"images": {
					Type:        "array",
					Description: "Array of image URLs or Base64 encoded images",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"effect_id"},
		},
	}, r.instrument("generate_with_effect", r.generateWithEffect))
}

func (r *Registry) generateWithEffect(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	var args generateWithEffectArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgument(err.Error()), nil
	}
	if args.EffectID == "" {
		return invalidArgument("effect_id is required"), nil
	}

	start := time.Now()
	receipt, err := r.api.SubmitEffectJob(ctx, args.EffectID, args.Images)
	r.metrics.RecordUpstreamCall(ctx, "submit_effect_job", time.Since(start).Seconds())
	if err != nil {
		r.metrics.RecordUpstreamError(ctx, "submit_effect_job")
		return upstreamFailure(err), nil
	}
	return jsonResult(receipt)
}

func registerGenerateCustomAdvanced(server *mcp.Server, r *Registry) {
	server.AddTool(&mcp.Tool{
		Name:        "generate_custom_advanced",
		Description: "Generate custom image or video content using advanced prompts. Returns a request_id for polling the result. Requires Authentication via Bearer token (set ETERNAL_AI_API_KEY environment variable).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"prompt": {
					Type:        "string",
					Description: "Custom text prompt describing the desired output",
				},
				"type": {
					Type:        "string",
					Description: "Output type: 'image' or 'video'",
					Enum:        []any{"image", "video"},
				},
				"images": {
					Type:        "array",
					Description: "Array of image URLs or Base64 encoded images",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"prompt", "type"},
		},
	}, r.instrument("generate_custom_advanced", r.generateCustomAdvanced))
}

func (r *Registry) generateCustomAdvanced(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	var args generateCustomArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgument(err.Error()), nil
	}
	if args.Prompt == "" {
		return invalidArgument("prompt is required"), nil
	}
	outputType := eternal.EffectType(args.Type)
	if !outputType.IsValid() {
		return invalidArgument("type must be 'image' or 'video'"), nil
	}

	start := time.Now()
	receipt, err := r.api.SubmitCustomJob(ctx, args.Prompt, outputType, args.Images)
	r.metrics.RecordUpstreamCall(ctx, "submit_custom_job", time.Since(start).Seconds())
	if err != nil {
		r.metrics.RecordUpstreamError(ctx, "submit_custom_job")
		return upstreamFailure(err), nil
	}
	return jsonResult(receipt)
}
