package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Toggle records the toggle name under the key "toggle".
func Toggle(name string) slog.Attr {
	return slog.String("toggle", name)
}

// Strategy records the strategy name under the key "strategy".
func Strategy(name string) slog.Attr {
	return slog.String("strategy", name)
}

// AppName records the application name under the key "app_name".
func AppName(name string) slog.Attr {
	return slog.String("app_name", name)
}

// InstanceID records the instance identifier under the key "instance_id".
func InstanceID(id string) slog.Attr {
	return slog.String("instance_id", id)
}

// URL records a request URL under the key "url".
func URL(u string) slog.Attr {
	return slog.String("url", u)
}

// StatusCode records an HTTP status code under the key "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// ETag records an entity tag under the key "etag".
// If tag is empty, it returns an empty Attr.
func ETag(tag string) slog.Attr {
	if tag == "" {
		return slog.Attr{}
	}
	return slog.String("etag", tag)
}

// Count records a number of items under the key "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
