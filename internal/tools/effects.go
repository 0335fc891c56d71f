package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emberfx/emberfx/pkg/eternal"
)

// getVisualEffectsArgs is the JSON-decoded input for get_visual_effects.
type getVisualEffectsArgs struct {
	// EffectType optionally filters the catalogue to "image" or "video".
	EffectType string `json:"effect_type"`

	// Page is the 1-based page to fetch. Zero means the first page.
	Page int `json:"page"`
}

func registerGetVisualEffects(server *mcp.Server, r *Registry) {
	server.AddTool(&mcp.Tool{
		Name:        "get_visual_effects",
		Description: "Get a list of available visual effects for content generation. Filter by type (image/video) and paginate through results.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"effect_type": {
					Type:        "string",
					Description: "Filter by effect type: 'image' or 'video'",
					Enum:        []any{"image", "video"},
				},
				"page": {
					Type:        "integer",
					Description: "Page number for pagination (default: 1)",
					Default:     json.RawMessage("1"),
				},
			},
		},
	}, r.instrument("get_visual_effects", r.getVisualEffects))
}

func (r *Registry) getVisualEffects(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	var args getVisualEffectsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgument(err.Error()), nil
	}

	effectType := eternal.EffectType(args.EffectType)
	if args.EffectType != "" && !effectType.IsValid() {
		return invalidArgument("effect_type must be 'image' or 'video'"), nil
	}
	if args.Page < 0 {
		return invalidArgument("page must be a positive integer"), nil
	}
	page := args.Page
	if page == 0 {
		page = 1
	}

	start := time.Now()
	effects, err := r.api.ListEffects(ctx, effectType, page)
	r.metrics.RecordUpstreamCall(ctx, "list_effects", time.Since(start).Seconds())
	if err != nil {
		r.metrics.RecordUpstreamError(ctx, "list_effects")
		return upstreamFailure(err), nil
	}
	return jsonResult(effects)
}
