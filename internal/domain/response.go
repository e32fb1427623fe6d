package domain

// ResponseStatus is the outcome class the presentation layer switches on.
type ResponseStatus string

const (
	StatusPreview              ResponseStatus = "preview"
	StatusDryRun               ResponseStatus = "dry_run"
	StatusExecuted             ResponseStatus = "executed"
	StatusFailed               ResponseStatus = "failed"
	StatusConfirmationRequired ResponseStatus = "confirmation_required"
	StatusBlocked              ResponseStatus = "blocked"
	StatusClarification        ResponseStatus = "clarification"
	StatusRejected             ResponseStatus = "rejected"
)

// Response is returned from every interpret and execute call. Renderers add
// tone; they never change the fields.
type Response struct {
	Status      ResponseStatus
	Message     string
	Intent      *Intent
	Risk        *RiskAssessment
	Command     *Command
	Preview     string
	Suggestions []string
	Candidates  []Candidate
	RawOutput   string
	Result      *ExecutionResult
}

// Tier returns the assessed tier, or SAFE when no command was assessed.
func (r Response) Tier() RiskTier {
	if r.Risk == nil {
		return TierSafe
	}
	return r.Risk.Tier
}

// Rationale returns the assessment rationale, if any.
func (r Response) Rationale() string {
	if r.Risk == nil {
		return ""
	}
	return r.Risk.Rationale
}
