// Package interpret orchestrates parse, render, classify, confirm and
// execute for one user turn.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// Service is the single interpreter API. Presentation layers call Interpret
// to preview and Execute to run; the service never re-executes on its own.
type Service struct {
	ConfigProvider  ports.ConfigProvider
	Parser          ports.IntentParser
	Knowledge       ports.KnowledgeBase
	SecurityService ports.SecurityService
	Executor        ports.CommandExecutor
	Feedback        ports.FeedbackRecorder
	Logger          ports.Logger

	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() string

	initOnce sync.Once
	locks    *sessionLocks
	readOnly *semaphore.Weighted
}

// ExecuteRequest asks for an intent to be run. Live must be set explicitly;
// the zero value is a dry run.
type ExecuteRequest struct {
	Intent    domain.Intent
	Token     *domain.ConfirmToken
	Live      bool
	SessionID string
}

func (s *Service) validate() error {
	if s.ConfigProvider == nil || s.Parser == nil || s.Knowledge == nil ||
		s.SecurityService == nil || s.Executor == nil || s.Logger == nil {
		return errors.New("interpret.Service dependencies not satisfied")
	}
	return nil
}

func (s *Service) init(cfg domain.Config) {
	s.initOnce.Do(func() {
		s.locks = newSessionLocks()
		s.readOnly = semaphore.NewWeighted(int64(cfg.GetReadOnlyWorkers()))
		if s.Now == nil {
			s.Now = time.Now
		}
		if s.NewID == nil {
			s.NewID = func() string { return uuid.NewString() }
		}
	})
}

// Interpret parses text and previews the resulting command with its risk.
// Nothing runs and nothing is recorded.
func (s *Service) Interpret(ctx context.Context, text string, session *domain.Session) (domain.Response, error) {
	if err := s.validate(); err != nil {
		return domain.Response{}, err
	}
	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.Response{}, fmt.Errorf("load config: %w", err)
	}
	s.init(cfg)

	intent, err := s.Parser.Parse(ctx, text, session)
	if err != nil {
		return failureResponse(nil, err), err
	}
	if intent.Action == domain.ActionHelp {
		return domain.Response{Status: domain.StatusPreview, Message: HelpText, Intent: &intent}, nil
	}

	cmd, risk, err := s.plan(intent, cfg)
	if err != nil {
		return failureResponse(&intent, err), err
	}

	resp := domain.Response{
		Status:  domain.StatusPreview,
		Message: cmd.Explanation,
		Intent:  &intent,
		Risk:    &risk,
		Command: &cmd,
		Preview: cmd.Text,
	}
	if risk.Blocked() {
		resp.Status = domain.StatusBlocked
		resp.Message = risk.Rationale
		resp.Suggestions = alternatives(risk)
	}
	s.Logger.Debug("interpreted", map[string]interface{}{
		"operation": intent.Operation,
		"command":   cmd.Text,
		"tier":      risk.Tier.String(),
	})
	return resp, nil
}

// Execute re-renders and re-assesses the intent, then applies the gate in
// order: block, confirm, dry run or live run.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (domain.Response, error) {
	if err := s.validate(); err != nil {
		return domain.Response{}, err
	}
	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.Response{}, fmt.Errorf("load config: %w", err)
	}
	s.init(cfg)

	intent := req.Intent
	if intent.Action == domain.ActionHelp {
		return domain.Response{Status: domain.StatusPreview, Message: HelpText, Intent: &intent}, nil
	}
	if intent.Confidence < cfg.GetConfidenceThreshold() {
		err := domain.NewError(domain.KindAmbiguousIntent, fmt.Sprintf("%q", intent.RawText),
			fmt.Sprintf("confidence %.2f is below %.2f", intent.Confidence, cfg.GetConfidenceThreshold()))
		return failureResponse(&intent, err), err
	}

	cmd, risk, err := s.plan(intent, cfg)
	if err != nil {
		return failureResponse(&intent, err), err
	}
	resp := domain.Response{Intent: &intent, Risk: &risk, Command: &cmd, Preview: cmd.Text}

	if risk.Blocked() {
		blocked := domain.NewError(domain.KindBlockedByPolicy, cmd.Text, risk.Rationale, alternatives(risk)...)
		blocked.Suggestions = alternatives(risk)
		resp.Status = domain.StatusBlocked
		resp.Message = risk.Rationale
		resp.Suggestions = blocked.Suggestions
		s.Logger.Warn("blocked by policy", map[string]interface{}{"command": cmd.Text, "rule": risk.MatchedRule})
		return resp, blocked
	}

	if risk.RequiresConfirmation && !risk.Accepts(req.Token, cmd.Text) {
		resp.Status = domain.StatusConfirmationRequired
		resp.Message = confirmationMessage(risk, cmd)
		return resp, nil
	}

	if err := ctx.Err(); err != nil {
		return resp, err
	}

	if !req.Live {
		result, err := s.Executor.Execute(ctx, cmd, domain.ExecOptions{DryRun: true})
		if err != nil {
			return failureResponse(&intent, err), err
		}
		resp.Status = domain.StatusDryRun
		resp.Message = cmd.Explanation
		resp.Result = &result
		return resp, nil
	}

	release, err := s.admit(ctx, req.SessionID, risk, cmd)
	if err != nil {
		return resp, err
	}
	result, execErr := s.Executor.Execute(ctx, cmd, execOptions(cfg, cmd))
	release()

	resp.Result = &result
	resp.RawOutput = strings.TrimRight(result.Stdout+result.Stderr, "\n")
	if execErr != nil {
		resp.Status = domain.StatusFailed
		resp.Message = result.Explanation
		var derr *domain.Error
		if errors.As(execErr, &derr) {
			resp.Suggestions = derr.NextSteps
		}
	} else {
		resp.Status = domain.StatusExecuted
		resp.Message = cmd.Explanation
	}
	s.record(req, intent, cmd, risk, result)
	return resp, execErr
}

// plan renders and classifies. Assessments are computed on every call.
func (s *Service) plan(intent domain.Intent, cfg domain.Config) (domain.Command, domain.RiskAssessment, error) {
	cmd, err := s.Knowledge.Render(intent, cfg.GetPreferredMethod())
	if err != nil {
		return domain.Command{}, domain.RiskAssessment{}, err
	}
	risk, err := s.SecurityService.Assess(cmd)
	if err != nil {
		return domain.Command{}, domain.RiskAssessment{}, fmt.Errorf("security assess: %w", err)
	}
	return cmd, risk, nil
}

// admit enforces the concurrency model: one MEDIUM+ operation per session,
// and a bounded pool for read-only work.
func (s *Service) admit(ctx context.Context, sessionID string, risk domain.RiskAssessment, cmd domain.Command) (func(), error) {
	if risk.Tier.AtLeast(domain.TierMedium) {
		return s.locks.acquire(ctx, sessionID)
	}
	if cmd.Class == domain.ClassQuery || cmd.Class == domain.ClassNetwork {
		if err := s.readOnly.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		return func() { s.readOnly.Release(1) }, nil
	}
	return func() {}, nil
}

func execOptions(cfg domain.Config, cmd domain.Command) domain.ExecOptions {
	return domain.ExecOptions{
		Timeout:     cfg.TimeoutFor(cmd.Class),
		MaxAttempts: cfg.GetMaxAttempts(),
		BackoffBase: cfg.GetBackoffBase(),
		BackoffMax:  cfg.GetBackoffMax(),
	}
}

// record is fire-and-forget; only live runs are recorded.
func (s *Service) record(req ExecuteRequest, intent domain.Intent, cmd domain.Command, risk domain.RiskAssessment, result domain.ExecutionResult) {
	if s.Feedback == nil {
		return
	}
	s.Feedback.Record(domain.FeedbackRecord{
		ID:         s.NewID(),
		SessionID:  req.SessionID,
		Input:      intent.RawText,
		Action:     intent.Action,
		Operation:  intent.Operation,
		Target:     intent.Target,
		RawTarget:  intent.RawTarget,
		Resolution: intent.Resolution,
		Command:    cmd.Text,
		Tier:       risk.Tier,
		Success:    result.Success,
		ExitCode:   result.ExitCode,
		DurationMS: result.Duration.Milliseconds(),
		Retries:    result.RetriesUsed,
		Timestamp:  s.Now().UTC(),
	})
}

func failureResponse(intent *domain.Intent, err error) domain.Response {
	resp := domain.Response{Status: domain.StatusClarification, Intent: intent, Message: err.Error()}
	var derr *domain.Error
	if !errors.As(err, &derr) {
		resp.Status = domain.StatusFailed
		return resp
	}
	resp.Message = derr.Reason
	resp.Suggestions = derr.NextSteps
	resp.Candidates = derr.Candidates
	switch derr.Kind {
	case domain.KindRejectedInput:
		resp.Status = domain.StatusRejected
	case domain.KindBlockedByPolicy:
		resp.Status = domain.StatusBlocked
	case domain.KindExecutionFailed, domain.KindExecutionTimeout, domain.KindStorageUnavailable:
		resp.Status = domain.StatusFailed
	}
	return resp
}

func alternatives(risk domain.RiskAssessment) []string {
	if risk.Alternative == "" {
		return nil
	}
	return []string{risk.Alternative}
}

func confirmationMessage(risk domain.RiskAssessment, cmd domain.Command) string {
	msg := fmt.Sprintf("%s (%s). Type %q to continue.", risk.Rationale, risk.Tier, risk.ConfirmationPhrase)
	if risk.Policy == domain.PolicyConfirmAndRestate {
		msg += fmt.Sprintf(" Then type the command back exactly: %s", cmd.Text)
	}
	return msg
}
