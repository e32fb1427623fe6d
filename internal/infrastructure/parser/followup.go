package parser

import (
	"regexp"

	"github.com/doeshing/nixsay/internal/domain"
)

type followUpKind int

const (
	notFollowUp followUpKind = iota
	mergedFollowUp
	freshFollowUp
)

var (
	correctionRe = regexp.MustCompile(`^(?:(?:actually|no|nope|wait)[, ]+)?(?:i meant|i mean|make (?:that|it)|change (?:that|it) to)\s+(?P<rest>.+)$`)
	actuallyRe   = regexp.MustCompile(`^actually[, ]+(?P<rest>.+)$`)
	insteadRe    = regexp.MustCompile(`^(?:use\s+|try\s+|get\s+)?(?P<rest>.+?)\s+instead$`)
	whatAboutRe  = regexp.MustCompile(`^(?:what about|how about|and)\s+(?P<rest>.+)$`)
	methodOnlyRe = regexp.MustCompile(`^(?:(?:do|make|install) (?:it|that)\s+)?(?P<rest>system[- ]?wide|systemwide|globally|for everyone|declaratively|just for me|for my user|temporarily|for now|in a shell|without installing|just try it)$`)
	verbItRe     = regexp.MustCompile(`^(?P<verb>install|remove|uninstall|delete|search for|search|find|start|stop|restart|enable|disable|reload)\s+(?:it|that|this)$`)
	targetTailRe = regexp.MustCompile(`^` + targetGroup + methodGroup + `$`)
)

// followUp merges a short refinement into the session's last intent. A
// follow-up phrase with no live context is NotUnderstood rather than a guess.
func (p *Parser) followUp(norm, raw string, session *domain.Session) (domain.Intent, followUpKind, error) {
	last, live := session.Last()

	if m := verbItRe.FindStringSubmatch(norm); m != nil {
		if !live || last.Target == "" {
			return domain.Intent{}, mergedFollowUp, noContext(norm)
		}
		intent, err := p.parseText(m[1]+" "+last.Target, raw)
		return intent, mergedFollowUp, err
	}

	if m := methodOnlyRe.FindStringSubmatch(norm); m != nil {
		if !live || last.Target == "" {
			return domain.Intent{}, mergedFollowUp, noContext(norm)
		}
		method, _ := methodFromPhrase(m[1])
		intent := last.WithModifier(domain.ModMethod, string(method))
		intent.RawText = raw
		return intent, mergedFollowUp, nil
	}

	rest, ok := "", false
	for _, re := range []*regexp.Regexp{correctionRe, actuallyRe, insteadRe, whatAboutRe} {
		if m := re.FindStringSubmatch(norm); m != nil {
			rest, ok = m[1], true
			break
		}
	}
	if !ok {
		return domain.Intent{}, notFollowUp, nil
	}

	// A complete request inside the refinement replaces the context.
	if p.Matches(rest) {
		intent, err := p.parseText(rest, raw)
		return intent, freshFollowUp, err
	}
	if !live || last.Target == "" {
		return domain.Intent{}, mergedFollowUp, noContext(norm)
	}
	if method, isMethod := methodFromPhrase(rest); isMethod {
		intent := last.WithModifier(domain.ModMethod, string(method))
		intent.RawText = raw
		return intent, mergedFollowUp, nil
	}

	m := targetTailRe.FindStringSubmatch(rest)
	if m == nil {
		return domain.Intent{}, mergedFollowUp, noContext(norm)
	}
	intent, err := p.retarget(last, cleanTarget(m[1]), m[2], raw)
	return intent, mergedFollowUp, err
}

// retarget swaps the target of a prior intent, keeping its action and
// modifiers.
func (p *Parser) retarget(last domain.Intent, target, methodPhrase, raw string) (domain.Intent, error) {
	intent := last
	intent.RawText = raw
	intent.Corrections = nil
	if method, ok := methodFromPhrase(methodPhrase); ok {
		intent = intent.WithModifier(domain.ModMethod, string(method))
	}
	resolved, certainty, err := p.resolveTarget(intent, target)
	if err != nil {
		return domain.Intent{}, err
	}
	resolved.Confidence = score(followUpFactor, certainty, nil)
	if resolved.Confidence < p.threshold {
		return domain.Intent{}, p.clarify(resolved)
	}
	return resolved, nil
}

func noContext(norm string) *domain.Error {
	return domain.NewError(domain.KindNotUnderstood, `"`+norm+`"`,
		"this refers to an earlier request, but there is none to refine",
		`Say the whole request, e.g. "install firefox".`)
}
