package instrumentation

import "time"

// Nop implements a no-op collector. All observations are discarded.
type Nop struct{}

var _ Collector = (*Nop)(nil)

// NewNop creates a new no-op collector.
func NewNop() *Nop {
	return &Nop{}
}

// ObserveSync discards the sync observation.
func (n *Nop) ObserveSync(_ /* result */ string, _ /* duration */ time.Duration) {}

// ObserveEvaluation discards the evaluation observation.
func (n *Nop) ObserveEvaluation(_ /* toggle */ string, _ /* enabled */ bool) {}

// ObserveDelivery discards the delivery observation.
func (n *Nop) ObserveDelivery(_ /* kind */, _ /* result */ string) {}

// ObserveBackup discards the backup observation.
func (n *Nop) ObserveBackup(_ /* op */, _ /* result */ string) {}
