// Package observability provides hooks for metrics, tracing, and logging.
//
// The router and the pipeline never depend on a metrics backend directly.
// Instead they call hooks, and main registers an implementation at startup
// (fpgaroute serves Prometheus counters through internal/metrics).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRouterHooks(metrics.NewRouterHooks(reg))
//	    observability.SetCacheHooks(metrics.NewCacheHooks(reg))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Router().OnIterationStart(ctx, iter, presFac)
//	// ... route nets ...
//	observability.Router().OnIterationComplete(ctx, iter, overused, wirelength, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Router Hooks
// =============================================================================

// RouterHooks receives events from the negotiated-congestion loop.
type RouterHooks interface {
	// Run events
	OnRouteStart(ctx context.Context, runID string, nets int)
	OnRouteComplete(ctx context.Context, runID, status string, iterations int, duration time.Duration)

	// Iteration events
	OnIterationStart(ctx context.Context, iter int, presFac float64)
	OnIterationComplete(ctx context.Context, iter, overused, wirelength int, duration time.Duration)

	// OnNetRouted records one net routing. failed is the number of sinks
	// left unconnected.
	OnNetRouted(ctx context.Context, net string, sinks, failed int, duration time.Duration)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the load-route-report pipeline.
type PipelineHooks interface {
	// Load events; kind is "graph" or "netlist".
	OnLoadStart(ctx context.Context, kind, path string)
	OnLoadComplete(ctx context.Context, kind, path string, count int, duration time.Duration, err error)

	// Report events
	OnReportStart(ctx context.Context, formats []string)
	OnReportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRouterHooks is a no-op implementation of RouterHooks.
type NoopRouterHooks struct{}

func (NoopRouterHooks) OnRouteStart(context.Context, string, int)                          {}
func (NoopRouterHooks) OnRouteComplete(context.Context, string, string, int, time.Duration) {}
func (NoopRouterHooks) OnIterationStart(context.Context, int, float64)                     {}
func (NoopRouterHooks) OnIterationComplete(context.Context, int, int, int, time.Duration)  {}
func (NoopRouterHooks) OnNetRouted(context.Context, string, int, int, time.Duration)       {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnReportStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnReportComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	routerHooks   RouterHooks   = NoopRouterHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetRouterHooks registers custom router hooks.
// This should be called once at application startup before any routing.
func SetRouterHooks(h RouterHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		routerHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Router returns the registered router hooks.
func Router() RouterHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return routerHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	routerHooks = NoopRouterHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
