// Package flagsync is a client for a feature toggle service.
//
// A Client keeps toggle definitions in sync with the service, evaluates them
// locally through pluggable strategies and reports aggregated usage back.
// Evaluation never blocks on the network and never fails: unknown toggles
// resolve to the caller's fallback and problems are reported through Hooks.
//
//	cfg, err := flagsync.LoadConfig()
//	if err != nil {
//	    return err
//	}
//	client, err := flagsync.New(ctx, cfg, flagsync.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	if err := client.Start(ctx); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if client.IsEnabled("new-checkout", feature.Context{UserID: id}, nil) {
//	    // ...
//	}
//
// The building blocks live in pkg/: feature (data model, strategies and the
// evaluator), repository (sync engine), storage (backup cache), metrics
// (usage reporting), httpclient (transport) and instrumentation (Prometheus
// metrics about the client itself).
package flagsync
