package instrumentation

import "time"

// Outcome labels shared by all collectors.
const (
	ResultSuccess     = "success"
	ResultNotModified = "not_modified"
	ResultError       = "error"
)

// Delivery kinds.
const (
	DeliveryRegister = "register"
	DeliveryMetrics  = "metrics"
)

// Backup operations.
const (
	BackupLoad    = "load"
	BackupPersist = "persist"
)

// Collector defines methods for recording operational metrics.
//
// Implementations must be non-blocking and safe for concurrent use.
type Collector interface {
	// ObserveSync records a toggle fetch with its outcome and latency.
	ObserveSync(result string, duration time.Duration)

	// ObserveEvaluation records a single toggle evaluation.
	ObserveEvaluation(toggle string, enabled bool)

	// ObserveDelivery records a register or metrics post with its outcome.
	ObserveDelivery(kind, result string)

	// ObserveBackup records a backup load or persist with its outcome.
	ObserveBackup(op, result string)
}
