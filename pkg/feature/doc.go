// Package feature evaluates feature toggles.
//
// A toggle is described by a Definition: an enabled flag, an ordered list of
// strategy bindings and optional weighted variants. Definitions come from a
// Source, usually the repository kept in sync with the toggle service, or a
// MemorySource for tests and static setups.
//
// # Evaluation
//
// Client.IsEnabled resolves a toggle for a request Context:
//
//   - unknown toggle: the caller's FallbackFunc decides (false when nil)
//   - disabled toggle: false
//   - no strategies: the enabled flag
//   - otherwise: true if any binding's constraints pass and its strategy
//     predicate holds; bindings are checked in order and evaluation stops at
//     the first match
//
// Bindings that reference a strategy missing from the Registry never match.
// The client reports them once per strategy and toggle through Hooks.OnWarn.
// A definition whose strategies field could not be decoded as a list is
// reported through Hooks.OnError and evaluates to false.
//
//	registry, err := feature.NewDefaultRegistry(myStrategy)
//	client, err := feature.NewClient(repo, registry,
//	    feature.WithLogger(log),
//	    feature.WithHooks(feature.Hooks{OnWarn: func(msg string) { log.Warn(msg) }}),
//	)
//	if client.IsEnabled("new-checkout", feature.Context{UserID: userID}, nil) {
//	    // ...
//	}
//
// # Strategies
//
// DefaultStrategies returns the built-ins: default, userWithId, hostname,
// gradualRolloutUserId, gradualRolloutSessionId, gradualRolloutRandom,
// flexibleRollout and remoteAddress. Percentage based strategies hash the
// sticky identifier with rollout.Normalized so every client assigns the same
// bucket to the same user.
//
// # Variants
//
// Client.GetVariant returns the variant assigned to a context when the toggle
// is enabled for it. SelectVariant honours overrides first and otherwise maps
// the userId, sessionId or remoteAddress onto the cumulative variant weights.
//
// # HTTP
//
// ContextFromRequest and Middleware build evaluation contexts from incoming
// requests, resolving the client address behind proxies.
package feature
