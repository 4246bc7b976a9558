// Copyright © 2024 The perlscope authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// durationPrinter is a span processor that prints each finished span with
// its duration and attributes.
type durationPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

var _ sdktrace.SpanProcessor = (*durationPrinter)(nil)

func (p *durationPrinter) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *durationPrinter) OnEnd(s sdktrace.ReadOnlySpan) {
	var attrs []string
	for _, kv := range s.Attributes() {
		attrs = append(attrs, string(kv.Key)+"="+kv.Value.Emit())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "trace: %-16s %10s %s\n", //nolint:errcheck // best-effort trace output
		s.Name(), s.EndTime().Sub(s.StartTime()), strings.Join(attrs, " "))
}

func (p *durationPrinter) Shutdown(context.Context) error   { return nil }
func (p *durationPrinter) ForceFlush(context.Context) error { return nil }

// startTracing installs a global tracer provider printing span durations to
// w. The returned function shuts the provider down.
func startTracing(w io.Writer) func() {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&durationPrinter{w: w}),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Errorf("stopping tracer: %s", err)
		}
		otel.SetTracerProvider(prev)
	}
}
