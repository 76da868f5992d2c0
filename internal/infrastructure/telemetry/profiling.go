package telemetry

import (
	"context"
	"fmt"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig configures the Pyroscope agent
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	Tags            map[string]string
}

// StartProfiler starts continuous profiling and returns its stop function.
// The stop function is a no-op when profiling is disabled.
func StartProfiler(cfg ProfilerConfig, log *zap.Logger) (func() error, error) {
	if !cfg.Enabled {
		return func() error { return nil }, nil
	}
	if cfg.ServerAddress == "" {
		return nil, fmt.Errorf("pyroscope server address is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          log.Named("pyroscope").Sugar(),
		Tags:            cfg.Tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	log.Info("Continuous profiling started",
		zap.String("server", cfg.ServerAddress),
		zap.String("application", cfg.ApplicationName),
	)
	return profiler.Stop, nil
}

// Profile runs fn with pprof labels built from key/value pairs so samples
// taken inside fn can be filtered in Pyroscope. Pairs with an empty key or
// value are dropped, as is a trailing key without value.
func Profile(ctx context.Context, fn func(context.Context), kv ...string) {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i] == "" || kv[i+1] == "" {
			continue
		}
		pairs = append(pairs, kv[i], kv[i+1])
	}
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}
