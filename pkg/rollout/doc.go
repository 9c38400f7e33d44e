// Package rollout assigns identifiers to stable numbered buckets.
//
// Bucket assignment is the shared building block of percentage rollouts and
// weighted variant selection. The hash is MurmurHash3 (x86, 32 bit, seed 0)
// computed over "salt:identifier", which keeps assignments identical across
// independently written clients of the same toggle service.
//
// # Usage
//
//	import "github.com/dmitrymomot/flagsync/pkg/rollout"
//
//	// Which of 100 buckets does this user fall into for the "checkout" group?
//	b := rollout.Normalized(userID, "checkout")
//	if b <= 25 {
//		// user is inside a 25% rollout
//	}
//
// The result is always in [1, total] for a positive total. Identical inputs
// always produce identical output; the package holds no state.
package rollout
