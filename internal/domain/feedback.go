package domain

import "time"

// FeedbackRecord is one executed interaction. Records are append-only.
type FeedbackRecord struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Input      string         `json:"input"`
	Action     Action         `json:"action"`
	Operation  string         `json:"operation"`
	Target     string         `json:"target,omitempty"`
	RawTarget  string         `json:"raw_target,omitempty"`
	Resolution ResolutionKind `json:"resolution,omitempty"`
	Command    string         `json:"command"`
	Tier       RiskTier       `json:"tier"`
	Success    bool           `json:"success"`
	ExitCode   int            `json:"exit_code"`
	DurationMS int64          `json:"duration_ms"`
	Retries    int            `json:"retries"`
	Timestamp  time.Time      `json:"timestamp"`
}

// AliasPromotion is a candidate alias with the evidence behind it.
type AliasPromotion struct {
	Alias     string
	Canonical string
	Kind      EntryKind
	Support   int
}

// FeedbackStats summarises recorded interactions.
type FeedbackStats struct {
	Total       int
	Successful  int
	ByOperation map[string]int
	ByTier      map[RiskTier]int
	Sessions    int
}
