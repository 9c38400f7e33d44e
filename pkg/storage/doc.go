// Package storage keeps the last known toggle set in memory and mirrors it to
// a recovery copy so a restarted process can evaluate toggles before it
// reaches the toggle service.
//
// Storage is generic over the stored value. Two backends are provided:
// FileBackend writes a JSON file through an afero filesystem, and RedisBackend
// keeps the same document under a Redis key. Both derive their file name or
// key from the application name passed through SafeName.
//
//	backend := storage.NewFileBackend(afero.NewOsFs(), "/var/lib/app", "billing")
//	store := storage.New[feature.Definition](backend, storage.WithHooks(storage.Hooks[feature.Definition]{
//	    OnReady: func(data map[string]feature.Definition) { /* ... */ },
//	}))
//	store.Load(ctx)
//
// Backend failures never surface as return values; they are delivered to
// Hooks.OnError and reads keep serving the in-memory copy.
package storage
