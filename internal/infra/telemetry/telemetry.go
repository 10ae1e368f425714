package telemetry

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/infra/config"
)

// Provider is the application handle over the tracing pipeline.
// HTTP metrics are owned by the transport middleware, not by this package.
type Provider struct {
	tracing *TracerProvider
}

// Attach starts the OTLP tracing pipeline. An empty OTLP endpoint leaves
// tracing off and returns a no-op provider.
func Attach(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if cfg.Telemetry.OTLPEndpoint == "" {
		log.Info("tracing disabled, no OTLP endpoint configured")
		return &Provider{}, nil
	}

	tracing, err := NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, err
	}

	return &Provider{tracing: tracing}, nil
}

// Tracing returns the tracer provider, or nil when tracing is disabled.
func (p *Provider) Tracing() *TracerProvider {
	if p == nil {
		return nil
	}
	return p.tracing
}

// Shutdown flushes and stops the tracing pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tracing == nil {
		return nil
	}
	return p.tracing.Shutdown(ctx)
}
