// Package server assembles the EmberFX MCP server: the stdio protocol loop
// plus the optional Prometheus metrics listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/emberfx/emberfx/internal/health"
)

// defaultInstructions is the guidance advertised to MCP clients during
// initialization.
const defaultInstructions = "EmberFX exposes the Eternal AI visual-effects service as MCP tools: " +
	"list effects with get_visual_effects, submit jobs with generate_with_effect or " +
	"generate_custom_advanced, wait for results with smart_poll_result, and render them " +
	"with display_media. Video jobs can outlast one poll session; call smart_poll_result " +
	"again when it reports the task is still processing."

// ToolRegistrar registers tool handlers with an MCP server.
// *tools.Registry satisfies it.
type ToolRegistrar interface {
	RegisterAll(server *mcp.Server)
}

// Options configures a Server.
type Options struct {
	// Version is reported to MCP clients during initialization.
	Version string

	// Instructions overrides the default client-facing guidance.
	Instructions string

	// MetricsAddr enables a Prometheus /metrics listener when non-empty.
	MetricsAddr string

	// Health optionally adds /healthz and /readyz probes to the metrics
	// listener.
	Health *health.Handler
}

// Server runs the MCP protocol over stdio, optionally alongside a metrics
// listener. Stdout carries the protocol stream exclusively; everything else
// (logs, metrics) goes elsewhere.
type Server struct {
	mcp         *mcp.Server
	metricsAddr string
	health      *health.Handler
}

// New builds a Server with all tools registered.
func New(reg ToolRegistrar, opts Options) *Server {
	instructions := opts.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "emberfx",
		Version: opts.Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
	})
	reg.RegisterAll(s)

	return &Server{
		mcp:         s,
		metricsAddr: opts.MetricsAddr,
		health:      opts.Health,
	}
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
// When a metrics address is configured, the /metrics listener runs alongside
// the protocol loop and both are torn down together.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if s.metricsAddr != "" {
		httpSrv := &http.Server{
			Addr:              s.metricsAddr,
			Handler:           s.adminHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			slog.Info("metrics listener starting", "addr", s.metricsAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// A clean client disconnect must take the metrics listener down
		// with it, not leave Wait blocked.
		defer cancel()
		return s.mcp.Run(ctx, &mcp.StdioTransport{})
	})

	return g.Wait()
}

// adminHandler serves the Prometheus scrape endpoint and, when configured,
// the health probes. Anything else is a 404.
func (s *Server) adminHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if s.health != nil {
		s.health.Register(mux)
	}
	return mux
}
