package feature

import (
	"math/rand/v2"
	"net/netip"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/flagsync/pkg/rollout"
)

// Built-in strategy names.
const (
	StrategyDefault                 = "default"
	StrategyUserWithID              = "userWithId"
	StrategyHostname                = "hostname"
	StrategyGradualRolloutUserID    = "gradualRolloutUserId"
	StrategyGradualRolloutSessionID = "gradualRolloutSessionId"
	StrategyGradualRolloutRandom    = "gradualRolloutRandom"
	StrategyFlexibleRollout         = "flexibleRollout"
	StrategyRemoteAddress           = "remoteAddress"
)

// DefaultStrategies returns a fresh set of all built-in strategies.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewDefaultStrategy(),
		NewUserWithIDStrategy(),
		NewHostnameStrategy(),
		NewGradualRolloutUserStrategy(),
		NewGradualRolloutSessionStrategy(),
		NewGradualRolloutRandomStrategy(),
		NewFlexibleRolloutStrategy(),
		NewRemoteAddressStrategy(),
	}
}

// RandomFunc returns a pseudo-random integer in [1, 100].
type RandomFunc func() int

func defaultRandom() int {
	return rand.IntN(100) + 1
}

// DefaultStrategy is enabled for every context.
type DefaultStrategy struct{}

// NewDefaultStrategy creates the always-on strategy.
func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

func (s *DefaultStrategy) Name() string { return StrategyDefault }

// IsEnabled always returns true.
func (s *DefaultStrategy) IsEnabled(Params, Context) bool { return true }

// UserWithIDStrategy enables toggles for an explicit list of user ids.
// Parameter: userIds, a comma separated list.
type UserWithIDStrategy struct{}

// NewUserWithIDStrategy creates a user list strategy.
func NewUserWithIDStrategy() *UserWithIDStrategy {
	return &UserWithIDStrategy{}
}

func (s *UserWithIDStrategy) Name() string { return StrategyUserWithID }

// IsEnabled checks whether the context user is in the userIds list.
func (s *UserWithIDStrategy) IsEnabled(params Params, ctx Context) bool {
	if ctx.UserID == "" {
		return false
	}
	return slices.Contains(splitList(params["userIds"]), ctx.UserID)
}

// HostnameStrategy enables toggles on specific machines.
// Parameter: hostNames, a comma separated list compared case-insensitively.
type HostnameStrategy struct {
	hostname string
}

// HostnameOption configures a HostnameStrategy.
type HostnameOption func(*HostnameStrategy)

// WithHostname overrides the detected hostname.
func WithHostname(name string) HostnameOption {
	return func(s *HostnameStrategy) {
		if name != "" {
			s.hostname = strings.ToLower(name)
		}
	}
}

// NewHostnameStrategy creates a hostname strategy. The HOSTNAME environment
// variable takes precedence over the operating system hostname.
func NewHostnameStrategy(opts ...HostnameOption) *HostnameStrategy {
	s := &HostnameStrategy{hostname: detectHostname()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func detectHostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		return strings.ToLower(h)
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return strings.ToLower(h)
	}
	return "undefined"
}

func (s *HostnameStrategy) Name() string { return StrategyHostname }

// Hostname returns the lower-cased hostname the strategy matches against.
func (s *HostnameStrategy) Hostname() string { return s.hostname }

// IsEnabled checks whether the current hostname is in the hostNames list.
func (s *HostnameStrategy) IsEnabled(params Params, _ Context) bool {
	hosts := params["hostNames"]
	if hosts == "" {
		return false
	}
	return slices.Contains(splitList(strings.ToLower(hosts)), s.hostname)
}

// GradualRolloutUserStrategy rolls a toggle out to a percentage of users.
// Parameters: percentage, groupId.
type GradualRolloutUserStrategy struct{}

// NewGradualRolloutUserStrategy creates a user id rollout strategy.
func NewGradualRolloutUserStrategy() *GradualRolloutUserStrategy {
	return &GradualRolloutUserStrategy{}
}

func (s *GradualRolloutUserStrategy) Name() string { return StrategyGradualRolloutUserID }

// IsEnabled hashes the user id into the rollout percentage. No user id means disabled.
func (s *GradualRolloutUserStrategy) IsEnabled(params Params, ctx Context) bool {
	if ctx.UserID == "" {
		return false
	}
	return inRollout(ctx.UserID, params["groupId"], params["percentage"])
}

// GradualRolloutSessionStrategy rolls a toggle out to a percentage of sessions.
// Parameters: percentage, groupId.
type GradualRolloutSessionStrategy struct{}

// NewGradualRolloutSessionStrategy creates a session id rollout strategy.
func NewGradualRolloutSessionStrategy() *GradualRolloutSessionStrategy {
	return &GradualRolloutSessionStrategy{}
}

func (s *GradualRolloutSessionStrategy) Name() string { return StrategyGradualRolloutSessionID }

// IsEnabled hashes the session id into the rollout percentage. No session id means disabled.
func (s *GradualRolloutSessionStrategy) IsEnabled(params Params, ctx Context) bool {
	if ctx.SessionID == "" {
		return false
	}
	return inRollout(ctx.SessionID, params["groupId"], params["percentage"])
}

// GradualRolloutRandomStrategy enables a toggle for a random share of evaluations.
// Parameter: percentage.
type GradualRolloutRandomStrategy struct {
	random RandomFunc
}

// NewGradualRolloutRandomStrategy creates a random rollout strategy.
// A nil random function falls back to math/rand.
func NewGradualRolloutRandomStrategy(random ...RandomFunc) *GradualRolloutRandomStrategy {
	s := &GradualRolloutRandomStrategy{random: defaultRandom}
	if len(random) > 0 && random[0] != nil {
		s.random = random[0]
	}
	return s
}

func (s *GradualRolloutRandomStrategy) Name() string { return StrategyGradualRolloutRandom }

// IsEnabled compares the percentage against a fresh random number in [1, 100].
func (s *GradualRolloutRandomStrategy) IsEnabled(params Params, _ Context) bool {
	percentage, ok := parsePercentage(params["percentage"])
	if !ok {
		return false
	}
	return percentage >= float64(s.random())
}

// Stickiness values accepted by the flexible rollout strategy.
const (
	StickinessDefault   = "default"
	StickinessUserID    = "userId"
	StickinessSessionID = "sessionId"
	StickinessRandom    = "random"
)

// FlexibleRolloutStrategy rolls a toggle out by a caller-chosen stickiness field.
// Parameters: rollout, stickiness, groupId.
type FlexibleRolloutStrategy struct {
	random RandomFunc
}

// NewFlexibleRolloutStrategy creates a flexible rollout strategy.
// A nil random function falls back to math/rand.
func NewFlexibleRolloutStrategy(random ...RandomFunc) *FlexibleRolloutStrategy {
	s := &FlexibleRolloutStrategy{random: defaultRandom}
	if len(random) > 0 && random[0] != nil {
		s.random = random[0]
	}
	return s
}

func (s *FlexibleRolloutStrategy) Name() string { return StrategyFlexibleRollout }

func (s *FlexibleRolloutStrategy) stickinessID(stickiness string, ctx Context) string {
	switch stickiness {
	case StickinessUserID:
		return ctx.UserID
	case StickinessSessionID:
		return ctx.SessionID
	case StickinessRandom:
		return strconv.Itoa(s.random())
	default:
		if ctx.UserID != "" {
			return ctx.UserID
		}
		if ctx.SessionID != "" {
			return ctx.SessionID
		}
		return strconv.Itoa(s.random())
	}
}

// IsEnabled resolves the stickiness id and hashes it into the rollout percentage.
// The group defaults to the name of the toggle under evaluation.
func (s *FlexibleRolloutStrategy) IsEnabled(params Params, ctx Context) bool {
	groupID := params["groupId"]
	if groupID == "" {
		groupID = ctx.FeatureToggle
	}
	stickiness := params["stickiness"]
	if stickiness == "" {
		stickiness = StickinessDefault
	}

	id := s.stickinessID(stickiness, ctx)
	if id == "" {
		return false
	}
	return inRollout(id, groupID, params["rollout"])
}

// RemoteAddressStrategy enables toggles for requests from listed addresses.
// Parameter: IPs, a comma separated list of addresses and CIDR ranges.
type RemoteAddressStrategy struct{}

// NewRemoteAddressStrategy creates a remote address strategy.
func NewRemoteAddressStrategy() *RemoteAddressStrategy {
	return &RemoteAddressStrategy{}
}

func (s *RemoteAddressStrategy) Name() string { return StrategyRemoteAddress }

// IsEnabled matches the request address against each entry. Entries that are
// neither the literal address nor a valid CIDR range are skipped.
func (s *RemoteAddressStrategy) IsEnabled(params Params, ctx Context) bool {
	ips := params["IPs"]
	if ips == "" || ctx.RemoteAddress == "" {
		return false
	}

	addr, addrErr := netip.ParseAddr(ctx.RemoteAddress)
	for _, entry := range splitList(ips) {
		if entry == ctx.RemoteAddress {
			return true
		}
		if addrErr != nil {
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			continue
		}
		if prefix.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// inRollout reports whether id falls into the first percentage buckets of group.
func inRollout(id, group, rawPercentage string) bool {
	percentage, ok := parsePercentage(rawPercentage)
	if !ok || percentage <= 0 {
		return false
	}
	return float64(rollout.Normalized(id, group)) <= percentage
}

func parsePercentage(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// splitList splits a comma separated parameter, trimming blanks around entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
