package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// displayMediaArgs is the JSON-decoded input for display_media.
type displayMediaArgs struct {
	// URL is the media location. Must use http or https. Required.
	URL string `json:"url"`
}

func registerDisplayMedia(server *mcp.Server, r *Registry) {
	server.AddTool(&mcp.Tool{
		Name:        "display_media",
		Description: "Render media (image or video) from a URL in markdown format for display. Supports images (jpg, png, gif, webp) and videos (mp4, webm, mov). For images, downloads and returns as base64 for inline display.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url": {
					Type:        "string",
					Description: "Media URL to render (must be http or https)",
				},
			},
			Required: []string{"url"},
		},
	}, r.instrument("display_media", r.displayMedia))
}

func (r *Registry) displayMedia(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	var args displayMediaArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgument(err.Error()), nil
	}
	if args.URL == "" {
		return invalidArgument("url is required"), nil
	}
	parsed, err := url.Parse(args.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return invalidArgument("url must use http or https"), nil
	}

	mimeType := mimeTypeForURL(args.URL)

	// Images are fetched and returned inline. Videos and unknown media are
	// never proxied through this layer; the URL is handed back as markdown.
	if strings.HasPrefix(mimeType, "image/") {
		start := time.Now()
		data, _, err := r.api.FetchBytes(ctx, args.URL)
		r.metrics.RecordUpstreamCall(ctx, "fetch_bytes", time.Since(start).Seconds())
		if err != nil {
			r.metrics.RecordUpstreamError(ctx, "fetch_bytes")
			return upstreamFailure(fmt.Errorf("failed to download image: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.ImageContent{
				Data:     data,
				MIMEType: mimeType,
			}},
		}, nil
	}

	markdown := fmt.Sprintf("![Media](%s)\n\nMedia URL: %s", args.URL, args.URL)
	return textResult(markdown), nil
}

// mimeTypeForURL infers a MIME type from the URL's file extension. Unknown
// extensions map to application/octet-stream, which display_media treats the
// same as video (link, don't fetch).
func mimeTypeForURL(rawURL string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".bmp"):
		return "image/bmp"
	case strings.HasSuffix(lower, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(lower, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(lower, ".webm"):
		return "video/webm"
	case strings.HasSuffix(lower, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(lower, ".avi"):
		return "video/x-msvideo"
	case strings.HasSuffix(lower, ".mkv"):
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}
