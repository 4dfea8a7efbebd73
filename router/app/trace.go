package app

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// jaegerLogger routes tracer diagnostics to the module logger.
type jaegerLogger struct{}

func (jaegerLogger) Error(msg string) {
	shardlog.Zero.Error().Str("component", "jaeger").Msg(msg)
}

func (jaegerLogger) Infof(msg string, args ...interface{}) {
	shardlog.Zero.Debug().Str("component", "jaeger").Msg(fmt.Sprintf(msg, args...))
}

// InitJaegerTracer installs the global tracer used by per-shard spans. Without
// a configured agent the no-op tracer stays in place.
func InitJaegerTracer(cfg *config.JaegerCfg) (io.Closer, error) {
	if cfg.JaegerUrl == "" {
		return nopCloser{}, nil
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "shardgate"
	}

	jcfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:              "const",
			Param:             1,
			SamplingServerURL: cfg.JaegerUrl,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: cfg.JaegerUrl,
		},
		Gen128Bit: true,
		Tags: []opentracing.Tag{
			{Key: "span.kind", Value: "client"},
		},
	}

	closer, err := jcfg.InitGlobalTracer(
		serviceName,
		jaegercfg.Logger(jaegerLogger{}),
		jaegercfg.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, fmt.Errorf("could not initialize jaeger tracer: %s", err.Error())
	}
	return closer, nil
}
