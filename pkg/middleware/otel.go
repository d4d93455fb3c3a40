package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/moqwire/pkg/transport"
)

// Default tracer name for parse spans.
const defaultTracerName = "moqwire"

// OTelConfig configures the OpenTelemetry parse observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "moqwire").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(ev transport.ParseEvent) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ev transport.ParseEvent) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry parse observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithEventFilter sets a filter function for parse events.
func WithEventFilter(filter func(ev transport.ParseEvent) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ev transport.ParseEvent) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

type tracingObserver struct {
	config OTelConfig
	tracer trace.Tracer
}

// OpenTelemetry returns a parse observer that records one span per parse.
//
// Spans are named "moq.parse <kind>" and are backdated to the first parse
// attempt, so their duration covers the reads the parse waited on. They
// carry moq.kind, moq.type, moq.bytes and moq.attempts, and an error
// status when the parse failed.
//
// Example:
//
//	obs := middleware.OpenTelemetry(middleware.WithTracerName("relay"))
//	r := transport.NewReader(conn, transport.WithObserver(obs))
func OpenTelemetry(opts ...OTelOption) transport.Observer {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracingObserver{config: config, tracer: tp.Tracer(config.TracerName)}
}

// ObserveParse implements transport.Observer.
func (o *tracingObserver) ObserveParse(ctx context.Context, ev transport.ParseEvent) {
	if o.config.Filter != nil && !o.config.Filter(ev) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("moq.kind", string(ev.Kind)),
		attribute.Int("moq.attempts", ev.Attempts),
	}
	if ev.Type != "" {
		attrs = append(attrs, attribute.String("moq.type", ev.Type))
	}
	if ev.Err == nil {
		attrs = append(attrs, attribute.Int("moq.bytes", ev.Bytes))
	}
	if o.config.AttributeExtractor != nil {
		attrs = append(attrs, o.config.AttributeExtractor(ev)...)
	}

	_, span := o.tracer.Start(ctx, "moq.parse "+string(ev.Kind),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(ev.Start),
	)
	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(ev.Start.Add(ev.Duration)))
}

// Chain returns an observer that forwards every event to each of observers
// in order. Nil observers are skipped.
func Chain(observers ...transport.Observer) transport.Observer {
	var list []transport.Observer
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return chain(list)
}

type chain []transport.Observer

func (c chain) ObserveParse(ctx context.Context, ev transport.ParseEvent) {
	for _, o := range c {
		o.ObserveParse(ctx, ev)
	}
}
