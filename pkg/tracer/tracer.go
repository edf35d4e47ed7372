// Copyright 2025 Lumacast Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Tracer interface {
	Start(ctx context.Context, spanName string) (context.Context, Span)
}

type Span interface {
	End()
}

type NoOpTracer struct{}

func (t *NoOpTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

type NoOpSpan struct{}

func (s *NoOpSpan) End() {}

var tracer Tracer = &NoOpTracer{}

func SetTracer(t Tracer) {
	tracer = t
}

func Start(ctx context.Context, spanName string) (context.Context, Span) {
	return tracer.Start(ctx, spanName)
}

// InitOTel installs an OpenTelemetry tracer provider and routes Start calls
// through it. Exporters are attached by the caller via the returned provider.
func InitOTel(serviceName string) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	SetTracer(&otelTracer{t: tp.Tracer(serviceName)})
	return tp
}

type otelTracer struct {
	t oteltrace.Tracer
}

func (o *otelTracer) Start(ctx context.Context, spanName string) (context.Context, Span) {
	ctx, span := o.t.Start(ctx, spanName)
	return ctx, &otelSpan{s: span}
}

type otelSpan struct {
	s oteltrace.Span
}

func (s *otelSpan) End() {
	s.s.End()
}
