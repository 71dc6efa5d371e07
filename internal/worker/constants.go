package worker

import "time"

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// ============================================================================
// Log Messages - Drop Decay Worker
// ============================================================================

// Log messages for drop decay worker operations
const (
	LogMsgDropDecayStarting  = "Drop decay sweep starting"
	LogMsgDropDecayCompleted = "Drop decay sweep completed"
	LogMsgDropDecayFailed    = "Failed to expire dropped item"
	LogMsgDropDecayScheduled = "Drop decay sweep scheduled"
)

// ============================================================================
// Defaults
// ============================================================================

const (
	DefaultDropTTL           = 30 * time.Minute
	DefaultDropSweepInterval = time.Minute
)

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount = 2
	TestQueueSize   = 10
	TestWaitTimeout = 2 * time.Second
)
