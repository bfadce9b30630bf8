// Package provider implements a small generic provider framework used to plug
// speech-recognition backends into audioreport.
//
// A backend is a RequestResponse[I, O]: one input, one output. Factories are
// registered by name in a Registry and instantiated from a generic config map.
// Cross-cutting behavior is added with Middleware:
//
//	wrapped := provider.Chain(
//	    provider.WithRecovery[In, Out](),
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("audioreport"),
//	)(provider.WithResilience(rawBackend, cfg))
package provider
