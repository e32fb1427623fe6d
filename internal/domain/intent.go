package domain

import (
	"sort"
	"strings"
)

// Action is the family an intent belongs to.
type Action string

const (
	ActionInstall  Action = "install"
	ActionRemove   Action = "remove"
	ActionSearch   Action = "search"
	ActionUpdate   Action = "update"
	ActionList     Action = "list"
	ActionRollback Action = "rollback"
	ActionClean    Action = "clean"
	ActionService  Action = "service"
	ActionRebuild  Action = "rebuild"
	ActionConfig   Action = "config"
	ActionHelp     Action = "help"
)

// TargetKind tells the knowledge store which namespace a target lives in.
type TargetKind string

const (
	TargetNone    TargetKind = ""
	TargetPackage TargetKind = "package"
	TargetService TargetKind = "service"
	TargetPath    TargetKind = "path"
	TargetTerm    TargetKind = "term" // free search text; validated, never resolved
)

// ResolutionKind records how a target name was matched.
type ResolutionKind string

const (
	ResolvedNone     ResolutionKind = ""
	ResolvedExact    ResolutionKind = "exact"
	ResolvedAlias    ResolutionKind = "alias"
	ResolvedFuzzy    ResolutionKind = "fuzzy"
	ResolvedCategory ResolutionKind = "category"
	ResolvedLiteral  ResolutionKind = "literal"
)

// Modifier keys understood by operation templates.
const (
	ModMethod     = "method"
	ModGeneration = "generation"
	ModOlderThan  = "older_than"
	ModServiceOp  = "op"
)

// Correction is a single typo fix applied during parsing.
type Correction struct {
	From     string
	To       string
	Distance int
}

// Intent is the structured form of one user request.
type Intent struct {
	Action      Action
	Operation   string
	Target      string
	RawTarget   string
	TargetKind  TargetKind
	Modifiers   map[string]string
	Confidence  float64
	RawText     string
	Resolution  ResolutionKind
	Corrections []Correction
}

// Modifier returns the modifier value or "".
func (i Intent) Modifier(key string) string {
	if i.Modifiers == nil {
		return ""
	}
	return i.Modifiers[key]
}

// WithModifier returns a copy of the intent with key set. The receiver's
// modifier map is never written.
func (i Intent) WithModifier(key, value string) Intent {
	mods := make(map[string]string, len(i.Modifiers)+1)
	for k, v := range i.Modifiers {
		mods[k] = v
	}
	if value == "" {
		delete(mods, key)
	} else {
		mods[key] = value
	}
	i.Modifiers = mods
	return i
}

// Key identifies the resolved request: two intents with the same key render
// the same command.
func (i Intent) Key() string {
	keys := make([]string, 0, len(i.Modifiers))
	for k := range i.Modifiers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(i.Action))
	b.WriteByte('|')
	b.WriteString(i.Operation)
	b.WriteByte('|')
	b.WriteString(i.Target)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(i.Modifiers[k])
	}
	return b.String()
}

// SameResolution reports whether both intents resolve to the same request.
func (i Intent) SameResolution(other Intent) bool {
	return i.Key() == other.Key()
}

// HasTarget reports whether the intent carries a resolved target.
func (i Intent) HasTarget() bool {
	return i.Target != ""
}

// Candidate is one ranked interpretation offered when the parser will not guess.
type Candidate struct {
	Intent      Intent
	Score       float64
	Description string
}
