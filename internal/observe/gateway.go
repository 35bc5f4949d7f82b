package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// InstrumentedGateway wraps a [gateway.Provider] with a span and latency,
// request and error metrics per call.
type InstrumentedGateway struct {
	inner   gateway.Provider
	name    string
	metrics *Metrics
}

var _ gateway.Provider = (*InstrumentedGateway)(nil)

// InstrumentGateway returns inner wrapped with tracing and metrics. name is
// the provider label. m may be nil, in which case only spans are recorded.
func InstrumentGateway(inner gateway.Provider, name string, m *Metrics) *InstrumentedGateway {
	return &InstrumentedGateway{inner: inner, name: name, metrics: m}
}

// GenerateText implements gateway.Provider.
func (g *InstrumentedGateway) GenerateText(ctx context.Context, prompt string, grounding bool) (*gateway.TextResult, error) {
	ctx, done := g.start(ctx, gateway.OpGenerateText, attribute.Bool("gateway.grounding", grounding))
	res, err := g.inner.GenerateText(ctx, prompt, grounding)
	done(err)
	return res, err
}

// GenerateTextWithImage implements gateway.Provider.
func (g *InstrumentedGateway) GenerateTextWithImage(ctx context.Context, prompt string, img gateway.Image, grounding bool) (*gateway.TextResult, error) {
	ctx, done := g.start(ctx, gateway.OpGenerateTextWithImage,
		attribute.Bool("gateway.grounding", grounding),
		attribute.String("gateway.image_mime", img.MIMEType),
	)
	res, err := g.inner.GenerateTextWithImage(ctx, prompt, img, grounding)
	done(err)
	return res, err
}

// GenerateImage implements gateway.Provider.
func (g *InstrumentedGateway) GenerateImage(ctx context.Context, prompt string) (*gateway.Image, error) {
	ctx, done := g.start(ctx, gateway.OpGenerateImage)
	img, err := g.inner.GenerateImage(ctx, prompt)
	done(err)
	return img, err
}

// GenerateSuggestions implements gateway.Provider.
func (g *InstrumentedGateway) GenerateSuggestions(ctx context.Context, partial string) ([]string, error) {
	ctx, done := g.start(ctx, gateway.OpGenerateSuggestions)
	out, err := g.inner.GenerateSuggestions(ctx, partial)
	done(err)
	return out, err
}

func (g *InstrumentedGateway) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("gateway.provider", g.name),
		attribute.String("gateway.op", op),
	)
	ctx, span := StartSpan(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		defer span.End()
		status := StatusOK
		if err != nil {
			status = StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			// A superseded call is cancelled on purpose.
			if ctx.Err() != nil {
				Logger(ctx).Debug("gateway call cancelled", "provider", g.name, "op", op)
			} else {
				Logger(ctx).Warn("gateway call failed", "provider", g.name, "op", op, "err", err)
			}
		}
		g.metrics.RecordGatewayRequest(ctx, g.name, op, status, time.Since(start))
	}
}
