/*
Copyright 2026 The ip2asn Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipasn

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is looked up lazily against whatever TracerProvider the host has
// installed.  This package never calls otel.SetTracerProvider itself:
// trace initialization belongs to the embedding host, so until one is
// installed every span here is a documented no-op.
var tracer = otel.Tracer("github.com/ip2asn/engine")

// startSpan is a thin wrapper so call sites read like the rest of the
// package's short helper functions instead of repeating the tracer lookup.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}
