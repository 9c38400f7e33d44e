// Package instrumentation records operational metrics of the toggle runtime:
// sync cycles, evaluations, usage delivery and backup persistence.
//
// Components accept a Collector and default to the no-op implementation.
// NewPrometheus returns a collector that lazily registers its metrics on the
// given registerer the first time a value is observed.
//
//	reg := prometheus.NewRegistry()
//	collector := instrumentation.NewPrometheus(reg, "flagsync")
//	repo, err := repository.New(httpClient, store, repository.WithCollector(collector))
package instrumentation
