package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/doeshing/nixsay/internal/domain"
)

var (
	commandStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	tierStyles = map[domain.RiskTier]lipgloss.Style{
		domain.TierSafe:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		domain.TierLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		domain.TierMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		domain.TierHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		domain.TierCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Bold(true),
	}
)

// Personality names accepted by preferences.personality.
const (
	PersonalityFriendly  = "friendly"
	PersonalityMinimal   = "minimal"
	PersonalityTechnical = "technical"
)

// headlines holds the per-personality lead line for each status. Minimal
// prints none.
var headlines = map[string]map[domain.ResponseStatus]string{
	PersonalityFriendly: {
		domain.StatusPreview:              "Here's what I would run:",
		domain.StatusDryRun:               "Dry run, nothing was changed. This is what would run:",
		domain.StatusExecuted:             "Done!",
		domain.StatusFailed:               "That didn't work.",
		domain.StatusConfirmationRequired: "This one needs your confirmation first.",
		domain.StatusBlocked:              "I won't run that.",
		domain.StatusClarification:        "I'm not quite sure what you meant.",
		domain.StatusRejected:             "I can't use that input.",
	},
	PersonalityTechnical: {
		domain.StatusPreview:              "plan:",
		domain.StatusDryRun:               "dry run:",
		domain.StatusExecuted:             "executed:",
		domain.StatusFailed:               "failed:",
		domain.StatusConfirmationRequired: "confirmation required:",
		domain.StatusBlocked:              "blocked by policy:",
		domain.StatusClarification:        "ambiguous:",
		domain.StatusRejected:             "rejected:",
	},
}

// Renderer prints responses. Personality changes tone and detail, never the
// facts: the command, tier and rationale are always shown.
type Renderer struct {
	out         io.Writer
	personality string
}

// NewRenderer builds a renderer; unknown personalities fall back to friendly.
func NewRenderer(out io.Writer, personality string) *Renderer {
	switch personality {
	case PersonalityFriendly, PersonalityMinimal, PersonalityTechnical:
	default:
		personality = PersonalityFriendly
	}
	return &Renderer{out: out, personality: personality}
}

// Render prints one response.
func (r *Renderer) Render(resp domain.Response) {
	if resp.Command == nil && resp.Status == domain.StatusPreview {
		// Help and other text-only answers.
		fmt.Fprintln(r.out, resp.Message)
		return
	}
	if line, ok := headlines[r.personality][resp.Status]; ok {
		fmt.Fprintln(r.out, headerStyle.Render(line))
	}

	if resp.Preview != "" {
		fmt.Fprintf(r.out, "  %s\n", commandStyle.Render(resp.Preview))
	}
	if resp.Risk != nil {
		fmt.Fprintf(r.out, "Risk: %s", r.tierBadge(resp.Risk.Tier))
		if resp.Risk.Rationale != "" {
			fmt.Fprintf(r.out, " - %s", resp.Risk.Rationale)
		}
		fmt.Fprintln(r.out)
	}

	switch resp.Status {
	case domain.StatusPreview, domain.StatusDryRun, domain.StatusExecuted:
		if r.personality != PersonalityMinimal && resp.Message != "" {
			fmt.Fprintln(r.out, resp.Message)
		}
	case domain.StatusFailed, domain.StatusRejected, domain.StatusConfirmationRequired:
		if resp.Message != "" {
			fmt.Fprintln(r.out, errorStyleFor(resp.Status).Render(resp.Message))
		}
	case domain.StatusBlocked:
		if resp.Risk == nil && resp.Message != "" {
			fmt.Fprintln(r.out, errorStyle.Render(resp.Message))
		}
	case domain.StatusClarification:
		if resp.Message != "" {
			fmt.Fprintln(r.out, resp.Message)
		}
		r.renderCandidates(resp.Candidates)
	}

	if r.personality == PersonalityTechnical {
		r.renderDetails(resp)
	}
	if resp.RawOutput != "" {
		fmt.Fprintln(r.out, resp.RawOutput)
	}
	r.renderSuggestions(resp)
}

// RenderError prints an error that carries no response.
func (r *Renderer) RenderError(err error) {
	fmt.Fprintln(r.out, errorStyle.Render("error: "+err.Error()))
}

// Notice prints a plain informational line.
func (r *Renderer) Notice(msg string) {
	fmt.Fprintln(r.out, dimStyle.Render(msg))
}

func (r *Renderer) tierBadge(tier domain.RiskTier) string {
	style, ok := tierStyles[tier]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(strings.ToUpper(tier.String()))
}

func (r *Renderer) renderCandidates(candidates []domain.Candidate) {
	for i, c := range candidates {
		fmt.Fprintf(r.out, "  %d) %s", i+1, c.Description)
		if r.personality == PersonalityTechnical {
			fmt.Fprintf(r.out, " %s", dimStyle.Render(fmt.Sprintf("(%.2f)", c.Score)))
		}
		fmt.Fprintln(r.out)
	}
}

func (r *Renderer) renderDetails(resp domain.Response) {
	var details []string
	if resp.Intent != nil {
		in := resp.Intent
		details = append(details, fmt.Sprintf("operation=%s", in.Operation))
		if in.Target != "" {
			details = append(details, fmt.Sprintf("target=%s", in.Target))
		}
		if in.Resolution != domain.ResolvedNone {
			details = append(details, fmt.Sprintf("resolution=%s", in.Resolution))
		}
		details = append(details, fmt.Sprintf("confidence=%.2f", in.Confidence))
		for _, c := range in.Corrections {
			details = append(details, fmt.Sprintf("corrected=%s->%s", c.From, c.To))
		}
	}
	if resp.Command != nil && resp.Command.Method != "" {
		details = append(details, fmt.Sprintf("method=%s", resp.Command.Method))
	}
	if resp.Risk != nil && resp.Risk.MatchedRule != "" {
		details = append(details, fmt.Sprintf("rule=%s", resp.Risk.MatchedRule))
	}
	if res := resp.Result; res != nil && !res.DryRun {
		details = append(details,
			fmt.Sprintf("exit=%d", res.ExitCode),
			fmt.Sprintf("attempts=%d", len(res.Attempts)),
			fmt.Sprintf("duration=%s", res.Duration.Round(time.Millisecond)))
		if res.TimedOut {
			details = append(details, "timed_out=true")
		}
	}
	if len(details) > 0 {
		fmt.Fprintln(r.out, dimStyle.Render(strings.Join(details, " ")))
	}
}

func (r *Renderer) renderSuggestions(resp domain.Response) {
	if len(resp.Suggestions) == 0 {
		return
	}
	label := "Try:"
	if resp.Status == domain.StatusBlocked {
		label = "Instead:"
	}
	if r.personality == PersonalityMinimal {
		label = ""
	}
	if label != "" {
		fmt.Fprintln(r.out, label)
	}
	for _, s := range resp.Suggestions {
		fmt.Fprintf(r.out, "  - %s\n", s)
	}
}

func errorStyleFor(status domain.ResponseStatus) lipgloss.Style {
	if status == domain.StatusConfirmationRequired {
		return tierStyles[domain.TierMedium]
	}
	return errorStyle
}
