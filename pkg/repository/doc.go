// Package repository keeps a local copy of the toggle set in sync with the
// toggle service.
//
// A Repository fetches GET {base}/client/features immediately on Start and
// then once per refresh interval, arming the next fetch only after the
// current one settles. Responses carry an ETag that is sent back as
// If-None-Match; a 304 leaves the set untouched. Every successful sync
// replaces the whole set and persists it through a storage.Backend so the
// next process can start from the last known toggles before the service
// answers.
//
//	client, _ := httpclient.New(url, "billing")
//	repo, _ := repository.New(client,
//	    repository.WithRefreshInterval(15*time.Second),
//	    repository.WithHooks(repository.Hooks{OnError: report}),
//	)
//	_ = repo.Start(ctx)
//	defer repo.Stop()
//
// Failures never stop polling; they are reported through Hooks.OnError as
// ErrTransport, ErrPayloadParse or a *StatusError matching ErrUnexpectedStatus.
package repository
