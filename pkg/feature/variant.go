package feature

import (
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/dmitrymomot/flagsync/pkg/rollout"
)

// seedFields are consulted in order to find a sticky variant seed.
var seedFields = []string{FieldUserID, FieldSessionID, FieldRemoteAddress}

func variantSeed(ctx Context) string {
	for _, name := range seedFields {
		if v, ok := ctx.Field(name); ok {
			return v
		}
	}
	return strconv.Itoa(rand.IntN(100001))
}

func findOverride(variants []VariantDefinition, ctx Context) (VariantDefinition, bool) {
	for _, v := range variants {
		for _, o := range v.Overrides {
			value, ok := ctx.Field(o.ContextName)
			if ok && slices.Contains(o.Values, value) {
				return v, true
			}
		}
	}
	return VariantDefinition{}, false
}

// SelectVariant picks the variant of def assigned to ctx.
//
// A variant whose override matches the context wins outright. Otherwise the
// first non-empty of userId, sessionId and remoteAddress (or a random value)
// is hashed into the cumulative weights. Returns false when the total weight
// is not positive.
func SelectVariant(def Definition, ctx Context) (VariantDefinition, bool) {
	total := 0
	for _, v := range def.Variants {
		total += v.Weight
	}
	if total <= 0 {
		return VariantDefinition{}, false
	}

	if v, ok := findOverride(def.Variants, ctx); ok {
		return v, true
	}

	target := rollout.Bucket(variantSeed(ctx), def.Name, total)
	counter := 0
	for _, v := range def.Variants {
		if v.Weight == 0 {
			continue
		}
		counter += v.Weight
		if counter >= target {
			return v, true
		}
	}
	return VariantDefinition{}, false
}
