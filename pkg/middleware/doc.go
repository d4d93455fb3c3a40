// Package middleware provides parse observers for transport readers.
//
// This package includes:
//   - Prometheus metrics for every parsed message, header and object
//   - OpenTelemetry spans for every parse
//   - Chain, to install several observers on one reader
//
// # Prometheus Metrics
//
// The Prometheus observer counts parses by kind, type and result, and
// records encoded sizes, parse attempts and latency:
//
//	obs := middleware.Prometheus(
//	    middleware.WithNamespace("relay"),
//	    middleware.WithRegistry(reg),
//	)
//
// Result labels are "ok", "malformed", "too_large", "unexpected_frame",
// "truncated", "canceled" and "error". An attempt that ends incomplete is
// not a result; it increments incomplete_total and the reader retries
// once more input arrives.
//
// # OpenTelemetry
//
// The OpenTelemetry observer emits one span per finished parse, backdated
// to the first attempt:
//
//	obs := middleware.OpenTelemetry(
//	    middleware.WithTracerName("relay"),
//	    middleware.WithEventFilter(func(ev transport.ParseEvent) bool {
//	        return ev.Kind == transport.KindControl
//	    }),
//	)
//
// # Chaining
//
//	r := transport.NewReader(conn, transport.WithObserver(
//	    middleware.Chain(metricsObs, tracingObs),
//	))
package middleware
