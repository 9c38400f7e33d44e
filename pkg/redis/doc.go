// Package redis connects to the Redis server that holds toggle backups.
//
// Connect parses a redis:// URL and pings the server, retrying a configured
// number of times before giving up with ErrRedisNotReady:
//
//	client, err := redis.Connect(ctx, redis.Config{
//	    ConnectionURL: "redis://localhost:6379/0",
//	    RetryAttempts: 3,
//	    RetryInterval: time.Second,
//	})
//	backend := storage.NewRedisBackend(client, "billing")
//
// Config fields carry env tags so the struct can be loaded with pkg/config.
package redis
