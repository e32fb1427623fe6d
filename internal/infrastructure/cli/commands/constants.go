package commands

// Listing defaults
const (
	DefaultFeedbackLimit  = 20
	MaxAnalysisRecords    = 5000
	TopOperationsShown    = 5
	TimestampColumnFormat = "2006-01-02 15:04"
)

// Error messages
const (
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrFeedbackDisabled         = "feedback recording is disabled (feedback.enabled: false)"
	ErrKnowledgeUnavailable     = "knowledge store unavailable"
	ErrGuardrailUnavailable     = "guardrail unavailable"
)

// Success messages
const (
	MsgNoFeedbackRecorded = "No feedback recorded yet."
	MsgNoPromotions       = "No aliases have enough support to promote."
	MsgPromotionCancelled = "Promotion cancelled."
	MsgNoKnownProblem     = "No known problem matches. Try \"doctor\" or paste the exact error."
)
