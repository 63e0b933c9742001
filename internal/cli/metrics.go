package cli

import (
	"log"

	"covideda/internal/config"
	"covideda/internal/metrics"
	"covideda/internal/metrics/datadog"
	"covideda/internal/metrics/prompush"
)

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it. A backend that fails to initialize leaves the
// nop backend in place.
func setupMetrics(cfg *config.Config) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  cfg.Job + ".",
			GlobalTags: []string{"job:" + cfg.Job},
		})
	case "", "none":
		if cfg.Verbose {
			log.Printf("metrics: disabled")
		}
		return func() {}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.Metrics.Backend)
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", cfg.Metrics.Backend, err)
		return func() {}
	}

	if cfg.Verbose {
		log.Printf("metrics: backend=%s job=%s", cfg.Metrics.Backend, cfg.Job)
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
		metrics.Reset()
	}
}
