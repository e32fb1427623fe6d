package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Interpretation defaults
const (
	DefaultPreferredMethod     = MethodUser
	DefaultConfidenceThreshold = 0.5
	DefaultMaxEditDistance     = 2
	// MaxCandidates is how many interpretations a clarification offers.
	MaxCandidates = 3
)

// Execution defaults
const (
	DefaultQueryTimeout    = 30 * time.Second
	DefaultNetworkTimeout  = 120 * time.Second
	DefaultMutationTimeout = 30 * time.Minute
	DefaultMaxAttempts     = 3
	DefaultBackoffBase     = time.Second
	DefaultBackoffMax      = 10 * time.Second
	DefaultReadOnlyWorkers = 4
	// ProcessWaitDelay bounds how long pipes may outlive a killed process.
	ProcessWaitDelay = 2 * time.Second
)

// Feedback defaults
const (
	// DefaultPromotionThreshold is the number of distinct sessions that must
	// agree before an alias is learned.
	DefaultPromotionThreshold  = 3
	DefaultFeedbackBufferSize  = 64
	DefaultFeedbackMemoryLimit = 500
	DefaultFeedbackListLimit   = 20
)

// Session defaults
const (
	DefaultSessionMaxTurns = 5
	DefaultSessionTTL      = 10 * time.Minute
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339Nano
)
