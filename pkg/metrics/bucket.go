package metrics

import "time"

// ToggleCount holds the usage of one toggle within a bucket.
type ToggleCount struct {
	Yes      int            `json:"yes"`
	No       int            `json:"no"`
	Variants map[string]int `json:"variants,omitempty"`
}

// Bucket aggregates toggle usage over a time window.
type Bucket struct {
	Start   time.Time              `json:"start"`
	Stop    time.Time              `json:"stop"`
	Toggles map[string]ToggleCount `json:"toggles"`
}

func newBucket(start time.Time) Bucket {
	return Bucket{Start: start, Toggles: make(map[string]ToggleCount)}
}

// Empty reports whether the bucket holds no counts.
func (b Bucket) Empty() bool {
	return len(b.Toggles) == 0
}

// Registration is the body of the register request.
type Registration struct {
	AppName    string    `json:"appName"`
	InstanceID string    `json:"instanceId"`
	Strategies []string  `json:"strategies"`
	Started    time.Time `json:"started"`
	Interval   int64     `json:"interval"` // milliseconds
}

// Payload is the body of the metrics request.
type Payload struct {
	AppName    string `json:"appName"`
	InstanceID string `json:"instanceId"`
	Bucket     Bucket `json:"bucket"`
}
