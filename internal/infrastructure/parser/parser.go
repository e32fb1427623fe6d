// Package parser turns natural-language requests into resolved intents.
package parser

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// Resolution certainty by lookup path. Fuzzy matches lose fuzzyPenalty per
// edit; typo corrections in the command words lose typoPenalty per edit.
const (
	certaintyExact    = 1.0
	certaintyAlias    = 0.97
	certaintyCategory = 0.7
	fuzzyPenalty      = 0.15
	typoPenalty       = 0.05
	followUpFactor    = 0.95
)

// Options configures a Parser.
type Options struct {
	ConfidenceThreshold float64
	MaxEditDistance     int
	Rules               []Rule
	Logger              ports.Logger
}

// Parser implements ports.IntentParser.
type Parser struct {
	rules     []Rule
	kb        ports.KnowledgeBase
	threshold float64
	typos     *corrector
	log       ports.Logger
}

// New builds a parser over the given knowledge base.
func New(kb ports.KnowledgeBase, opts Options) *Parser {
	rules := opts.Rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = domain.DefaultConfidenceThreshold
	}
	return &Parser{
		rules:     rules,
		kb:        kb,
		threshold: threshold,
		typos:     newCorrector(vocabulary(rules), kb.IsKnownName, opts.MaxEditDistance),
		log:       opts.Logger,
	}
}

// Parse resolves text against the rule table, using and updating session
// context when one is supplied.
func (p *Parser) Parse(ctx context.Context, text string, session *domain.Session) (domain.Intent, error) {
	if err := ctx.Err(); err != nil {
		return domain.Intent{}, err
	}
	norm := Normalize(text)
	if norm == "" {
		return domain.Intent{}, domain.NewError(domain.KindNotUnderstood, "nothing", "the request was empty")
	}

	if intent, kind, err := p.followUp(norm, text, session); kind != notFollowUp {
		if err != nil {
			return domain.Intent{}, err
		}
		session.Remember(intent, kind == mergedFollowUp)
		p.debug("follow-up", intent)
		return intent, nil
	}

	intent, err := p.parseText(norm, text)
	if err != nil {
		return domain.Intent{}, err
	}
	session.Remember(intent, false)
	p.debug("parsed", intent)
	return intent, nil
}

// parseText runs the rule table, then typo correction, then the bare-target
// fallback.
func (p *Parser) parseText(norm, raw string) (domain.Intent, error) {
	intent, err := p.match(norm, raw, nil)
	if !isUnmatched(err) {
		return intent, err
	}

	if corrected, corrections := p.typos.correct(norm); len(corrections) > 0 {
		intent, err = p.match(corrected, raw, corrections)
		if !isUnmatched(err) {
			return intent, err
		}
	}

	if bare, ok := p.bareTarget(norm, raw); ok {
		return domain.Intent{}, bare
	}
	return domain.Intent{}, p.notUnderstood(norm)
}

var errUnmatched = errors.New("no rule matched")

func isUnmatched(err error) bool {
	return errors.Is(err, errUnmatched)
}

// Matches reports whether any rule fully matches the normalized text.
func (p *Parser) Matches(norm string) bool {
	for _, r := range p.rules {
		if r.Pattern.MatchString(norm) {
			return true
		}
	}
	return false
}

func (p *Parser) match(norm, raw string, corrections []domain.Correction) (domain.Intent, error) {
	for _, r := range p.rules {
		groups := submatches(r, norm)
		if groups == nil {
			continue
		}
		return p.build(r, groups, raw, corrections)
	}
	return domain.Intent{}, errUnmatched
}

func submatches(r Rule, norm string) map[string]string {
	m := r.Pattern.FindStringSubmatch(norm)
	if m == nil {
		return nil
	}
	groups := map[string]string{}
	for i, name := range r.Pattern.SubexpNames() {
		if name != "" && i < len(m) {
			groups[name] = m[i]
		}
	}
	return groups
}

func (p *Parser) build(r Rule, groups map[string]string, raw string, corrections []domain.Correction) (domain.Intent, error) {
	intent := domain.Intent{
		Action:      r.Action,
		Operation:   r.Operation,
		TargetKind:  r.TargetKind,
		RawText:     raw,
		Corrections: corrections,
	}
	for k, v := range r.Modifiers {
		intent = intent.WithModifier(k, v)
	}
	if method, ok := methodFromPhrase(groups["method"]); ok {
		intent = intent.WithModifier(domain.ModMethod, string(method))
	}
	if g := groups["generation"]; g != "" {
		intent = intent.WithModifier(domain.ModGeneration, g)
	}
	if d := groups["older"]; d != "" {
		intent = intent.WithModifier(domain.ModOlderThan, d+"d")
	}
	if op := groups["op"]; op != "" {
		intent = intent.WithModifier(domain.ModServiceOp, op)
	}

	certainty := certaintyExact
	if r.TargetKind != domain.TargetNone {
		resolved, c, err := p.resolveTarget(intent, cleanTarget(groups["target"]))
		if err != nil {
			return domain.Intent{}, err
		}
		intent, certainty = resolved, c
	}

	intent.Confidence = score(r.Specificity, certainty, corrections)
	if intent.Confidence < p.threshold {
		return domain.Intent{}, p.clarify(intent)
	}
	return intent, nil
}

func score(specificity, certainty float64, corrections []domain.Correction) float64 {
	c := specificity*certainty - typoPenalty*float64(totalDistance(corrections))
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*1000) / 1000
}

// resolveTarget validates the raw target and resolves it through the
// knowledge base. It returns the intent with Target set and the resolution
// certainty.
func (p *Parser) resolveTarget(intent domain.Intent, rawTarget string) (domain.Intent, float64, error) {
	intent.RawTarget = rawTarget
	if err := p.validateWords(intent.TargetKind, rawTarget); err != nil {
		return intent, 0, withUnderstood(err, describe(intent))
	}

	switch intent.TargetKind {
	case domain.TargetPath:
		intent.Target = rawTarget
		intent.Resolution = domain.ResolvedLiteral
		return intent, certaintyExact, nil
	case domain.TargetTerm:
		res, err := p.kb.Resolve(domain.KindPackage, rawTarget)
		switch {
		case err == nil && (res.Via == domain.ResolvedExact || res.Via == domain.ResolvedAlias):
			intent.Target = res.Entry.Canonical
			intent.Resolution = res.Via
		case err == nil && res.Via == domain.ResolvedCategory && res.Entry.Category != "":
			intent.Target = res.Entry.Category
			intent.Resolution = domain.ResolvedCategory
		default:
			// Free text must still be a single safe word.
			if verr := p.kb.ValidateTarget(domain.TargetTerm, rawTarget); verr != nil {
				return intent, 0, withUnderstood(verr, describe(intent))
			}
			intent.Target = rawTarget
			intent.Resolution = domain.ResolvedLiteral
		}
		return intent, certaintyExact, nil
	}

	kind := domain.KindPackage
	if intent.TargetKind == domain.TargetService {
		kind = domain.KindService
	}
	res, err := p.kb.Resolve(kind, rawTarget)
	if err != nil {
		return intent, 0, withUnderstood(err, describe(intent))
	}
	if res.Ambiguous() {
		return intent, 0, p.ambiguousCategory(intent, res)
	}
	intent.Target = res.Entry.Canonical
	intent.Resolution = res.Via

	switch res.Via {
	case domain.ResolvedExact:
		return intent, certaintyExact, nil
	case domain.ResolvedAlias:
		return intent, certaintyAlias, nil
	case domain.ResolvedFuzzy:
		return intent, math.Max(0, 1-fuzzyPenalty*float64(res.Distance)), nil
	default:
		return intent, certaintyCategory, nil
	}
}

// validateWords checks each word of a name target. Multi-word targets such
// as "music player" only ever reach a command as a resolved canonical name.
func (p *Parser) validateWords(kind domain.TargetKind, target string) error {
	if kind == domain.TargetPath {
		return p.kb.ValidateTarget(kind, target)
	}
	words := strings.Fields(target)
	if len(words) == 0 {
		return p.kb.ValidateTarget(kind, target)
	}
	for _, w := range words {
		if err := p.kb.ValidateTarget(kind, w); err != nil {
			return err
		}
	}
	return nil
}

func withUnderstood(err error, understood string) error {
	var derr *domain.Error
	if errors.As(err, &derr) && understood != "" {
		copied := *derr
		copied.Understood = understood
		return &copied
	}
	return err
}

// clarify turns a low-confidence intent into a ranked clarification request.
func (p *Parser) clarify(intent domain.Intent) error {
	candidates := []domain.Candidate{{Intent: intent, Score: intent.Confidence, Description: describe(intent)}}
	if intent.RawTarget != "" && intent.Action != domain.ActionSearch {
		search := domain.Intent{
			Action:     domain.ActionSearch,
			Operation:  "search",
			Target:     intent.RawTarget,
			RawTarget:  intent.RawTarget,
			TargetKind: domain.TargetTerm,
			RawText:    intent.RawText,
			Resolution: domain.ResolvedLiteral,
		}
		candidates = append(candidates, domain.Candidate{Intent: search, Score: intent.Confidence * 0.8, Description: describe(search)})
	}
	if intent.TargetKind == domain.TargetPackage || intent.TargetKind == domain.TargetService {
		kind := domain.KindPackage
		if intent.TargetKind == domain.TargetService {
			kind = domain.KindService
		}
		for _, name := range p.kb.Suggest(kind, intent.RawTarget, domain.MaxCandidates) {
			if name == intent.Target {
				continue
			}
			alt := intent
			alt.Target = name
			candidates = append(candidates, domain.Candidate{Intent: alt, Score: intent.Confidence * 0.6, Description: describe(alt)})
		}
	}
	return clarification(intent.RawText, fmt.Sprintf("confidence %.2f is below %.2f", intent.Confidence, p.threshold), candidates)
}

func (p *Parser) ambiguousCategory(intent domain.Intent, res domain.Resolution) error {
	candidates := make([]domain.Candidate, 0, len(res.Matches))
	for i, entry := range res.Matches {
		alt := intent
		alt.Target = entry.Canonical
		alt.Resolution = domain.ResolvedCategory
		alt.Confidence = certaintyCategory / float64(len(res.Matches))
		candidates = append(candidates, domain.Candidate{
			Intent:      alt,
			Score:       alt.Confidence - float64(i)*0.001,
			Description: fmt.Sprintf("%s (%s)", describe(alt), entry.Description),
		})
	}
	return clarification(intent.RawText, fmt.Sprintf("%q matches %d entries", intent.RawTarget, len(res.Matches)), candidates)
}

// bareTarget handles input that is only a name: it could mean install,
// search or remove, so the parser always asks.
func (p *Parser) bareTarget(norm, raw string) (*domain.Error, bool) {
	target := cleanTarget(norm)
	if p.kb.ValidateTarget(domain.TargetPackage, target) != nil {
		return nil, false
	}
	res, err := p.kb.Resolve(domain.KindPackage, target)
	if err != nil || res.Ambiguous() {
		return nil, false
	}
	base := domain.Intent{
		Target:     res.Entry.Canonical,
		RawTarget:  target,
		RawText:    raw,
		Resolution: res.Via,
	}
	options := []struct {
		action domain.Action
		op     string
		kind   domain.TargetKind
		score  float64
	}{
		{domain.ActionInstall, "install", domain.TargetPackage, 0.45},
		{domain.ActionSearch, "search", domain.TargetTerm, 0.35},
		{domain.ActionRemove, "remove", domain.TargetPackage, 0.2},
	}
	var candidates []domain.Candidate
	for _, o := range options {
		c := base
		c.Action, c.Operation, c.TargetKind, c.Confidence = o.action, o.op, o.kind, o.score
		candidates = append(candidates, domain.Candidate{Intent: c, Score: o.score, Description: describe(c)})
	}
	return clarification(raw, fmt.Sprintf("%q names a package but not what to do with it", target), candidates), true
}

func clarification(raw, reason string, candidates []domain.Candidate) *domain.Error {
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if len(candidates) > domain.MaxCandidates {
		candidates = candidates[:domain.MaxCandidates]
	}
	steps := make([]string, 0, len(candidates))
	suggestions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		steps = append(steps, fmt.Sprintf("Did you mean %q?", c.Description))
		suggestions = append(suggestions, c.Description)
	}
	err := domain.NewError(domain.KindAmbiguousIntent, fmt.Sprintf("%q", raw), reason, steps...)
	err.Candidates = candidates
	err.Suggestions = suggestions
	return err
}

// notUnderstood builds suggestions from rules sharing a keyword with the input.
func (p *Parser) notUnderstood(norm string) *domain.Error {
	seen := map[string]bool{}
	var suggestions []string
	for _, tok := range tokens(norm) {
		for _, r := range p.rules {
			if seen[r.Example] {
				continue
			}
			for _, k := range r.Keywords {
				if k == tok {
					seen[r.Example] = true
					suggestions = append(suggestions, r.Example)
					break
				}
			}
		}
	}
	if len(suggestions) > domain.MaxCandidates {
		suggestions = suggestions[:domain.MaxCandidates]
	}
	steps := make([]string, 0, len(suggestions)+1)
	for _, s := range suggestions {
		steps = append(steps, fmt.Sprintf("Try %q.", s))
	}
	err := domain.NewError(domain.KindNotUnderstood, fmt.Sprintf("%q", norm), "no known request matches this phrasing", steps...)
	err.Suggestions = suggestions
	return err
}

// describe renders an intent as the phrase a user would type.
func describe(intent domain.Intent) string {
	phrase := string(intent.Action)
	if intent.Operation != "" && intent.Operation != string(intent.Action) {
		phrase = intent.Operation
	}
	if intent.Target != "" {
		phrase += " " + intent.Target
	} else if intent.RawTarget != "" {
		phrase += " " + intent.RawTarget
	}
	if m := intent.Modifier(domain.ModMethod); m != "" {
		phrase += " (" + m + ")"
	}
	return phrase
}

func (p *Parser) debug(msg string, intent domain.Intent) {
	if p.log == nil {
		return
	}
	p.log.Debug(msg, map[string]interface{}{
		"operation":  intent.Operation,
		"target":     intent.Target,
		"confidence": intent.Confidence,
		"resolution": string(intent.Resolution),
	})
}

var _ ports.IntentParser = (*Parser)(nil)
