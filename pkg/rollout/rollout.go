package rollout

import "github.com/twmb/murmur3"

// DefaultBuckets is the bucket count used for percentage rollouts.
const DefaultBuckets = 100

// Bucket returns the bucket in [1, total] that identifier falls into for the given salt.
// A non-positive total has no buckets and yields 0.
func Bucket(identifier, salt string, total int) int {
	if total <= 0 {
		return 0
	}
	hash := murmur3.Sum32([]byte(salt + ":" + identifier))
	return int(hash%uint32(total)) + 1
}

// Normalized returns the percentage bucket (1..100) of identifier within group.
func Normalized(identifier, group string) int {
	return Bucket(identifier, group, DefaultBuckets)
}
