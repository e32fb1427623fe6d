// Package knowledge implements the deterministic name and template registry.
//
// Entries come from three layers: the embedded built-in catalog, aliases
// learned through feedback, and a user override file. Lookups never invent
// a name; anything that does not resolve is reported with suggestions.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

type aliasBinding struct {
	canonical string
	layer     domain.KnowledgeLayer
}

// Store implements ports.KnowledgeBase.
type Store struct {
	mu          sync.RWMutex
	entries     map[domain.EntryKind]map[string]*domain.KnowledgeEntry
	aliases     map[domain.EntryKind]map[string]aliasBinding
	categories  map[string]string
	operations  map[string]domain.Operation
	problems    []domain.Problem
	practices   map[string]domain.Practice
	version     uint64
	maxDistance int
	homeDir     string
}

// Options configures a Store.
type Options struct {
	MaxEditDistance int
	// HomeDir expands "~" in path targets.
	HomeDir string
}

// NewStore builds a store seeded with the built-in catalog.
func NewStore(opts Options) (*Store, error) {
	if opts.MaxEditDistance <= 0 {
		opts.MaxEditDistance = domain.DefaultMaxEditDistance
	}
	s := &Store{
		entries:     map[domain.EntryKind]map[string]*domain.KnowledgeEntry{},
		aliases:     map[domain.EntryKind]map[string]aliasBinding{},
		categories:  map[string]string{},
		operations:  map[string]domain.Operation{},
		practices:   map[string]domain.Practice{},
		maxDistance: opts.MaxEditDistance,
		homeDir:     opts.HomeDir,
	}
	for _, op := range builtinOperations() {
		s.operations[op.Name] = op
	}
	catalog, err := BuiltinCatalog()
	if err != nil {
		return nil, err
	}
	if err := s.Apply(catalog, domain.LayerBuiltin); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply merges a catalog into the store at the given layer.
func (s *Store) Apply(catalog Catalog, layer domain.KnowledgeLayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for category, synonyms := range catalog.Categories {
		for _, synonym := range synonyms {
			s.categories[normalizeName(synonym)] = category
		}
	}
	for _, entry := range catalog.Entries {
		if err := s.putEntryLocked(entry, layer); err != nil {
			return err
		}
	}
	for alias, canonical := range catalog.Aliases {
		if err := s.bindLocked(alias, canonical, domain.KindPackage, layer); err != nil {
			return err
		}
	}
	for _, p := range catalog.Problems {
		s.putProblemLocked(p)
	}
	for _, p := range catalog.Practices {
		if key := topicKey(p.Topic); key != "" {
			s.practices[key] = p
		}
	}
	return nil
}

// LoadLearned registers every persisted alias at the learned layer. Aliases
// that conflict with an existing binding are skipped.
func (s *Store) LoadLearned(ctx context.Context, repo ports.AliasRepository) (int, error) {
	aliases, err := repo.LoadAliases(ctx)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, alias := range aliases {
		if err := s.RegisterAlias(alias.Alias, alias.Canonical, alias.Kind, domain.LayerLearned); err == nil {
			loaded++
		}
	}
	return loaded, nil
}

func (s *Store) putEntryLocked(entry domain.KnowledgeEntry, layer domain.KnowledgeLayer) error {
	if entry.Kind == "" {
		entry.Kind = domain.KindPackage
	}
	key := normalizeName(entry.Canonical)
	if key == "" {
		return fmt.Errorf("knowledge entry without canonical name")
	}
	if err := validateName(entry.Canonical); err != nil {
		return fmt.Errorf("knowledge entry %q: %w", entry.Canonical, err)
	}
	byName := s.entries[entry.Kind]
	if byName == nil {
		byName = map[string]*domain.KnowledgeEntry{}
		s.entries[entry.Kind] = byName
	}

	s.version++
	if existing, ok := byName[key]; ok {
		merged := *existing
		if entry.Category != "" {
			merged.Category = entry.Category
		}
		if entry.Description != "" {
			merged.Description = entry.Description
		}
		if len(entry.Templates) > 0 {
			templates := map[domain.Method]string{}
			for m, t := range existing.Templates {
				templates[m] = t
			}
			for m, t := range entry.Templates {
				templates[m] = t
			}
			merged.Templates = templates
		}
		merged.Layer = layer
		merged.Version = s.version
		byName[key] = &merged
	} else {
		stored := entry
		stored.Aliases = nil
		stored.Layer = layer
		stored.Version = s.version
		byName[key] = &stored
	}

	for _, alias := range entry.Aliases {
		if err := s.bindLocked(alias, entry.Canonical, entry.Kind, layer); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAlias binds alias to an existing canonical entry. A binding from a
// higher layer is never replaced by a lower one, and an alias may not shadow
// another canonical name.
func (s *Store) RegisterAlias(alias, canonical string, kind domain.EntryKind, layer domain.KnowledgeLayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindLocked(alias, canonical, kind, layer)
}

func (s *Store) bindLocked(alias, canonical string, kind domain.EntryKind, layer domain.KnowledgeLayer) error {
	if kind == "" {
		kind = domain.KindPackage
	}
	aliasKey := normalizeName(alias)
	canonicalKey := normalizeName(canonical)
	if err := validateName(aliasKey); err != nil {
		return fmt.Errorf("alias %q: %w", alias, err)
	}
	entry, ok := s.entries[kind][canonicalKey]
	if !ok {
		return fmt.Errorf("alias %q: unknown %s %q", alias, kind, canonical)
	}
	if aliasKey == canonicalKey {
		return nil
	}
	if _, clash := s.entries[kind][aliasKey]; clash {
		return fmt.Errorf("alias %q is already a canonical %s name", alias, kind)
	}

	byAlias := s.aliases[kind]
	if byAlias == nil {
		byAlias = map[string]aliasBinding{}
		s.aliases[kind] = byAlias
	}
	if existing, bound := byAlias[aliasKey]; bound {
		// Learned aliases only ever fill gaps.
		if layer == domain.LayerLearned && existing.canonical != entry.Canonical {
			return fmt.Errorf("alias %q already points to %q", alias, existing.canonical)
		}
		if existing.canonical == entry.Canonical {
			if layer > existing.layer && layer != domain.LayerLearned {
				byAlias[aliasKey] = aliasBinding{canonical: entry.Canonical, layer: layer}
			}
			return nil
		}
		if layer <= existing.layer {
			return fmt.Errorf("alias %q already points to %q", alias, existing.canonical)
		}
	}
	byAlias[aliasKey] = aliasBinding{canonical: entry.Canonical, layer: layer}
	s.version++
	return nil
}

// Resolve looks a name up: exact canonical, exact alias, fuzzy, then
// category synonym.
func (s *Store) Resolve(kind domain.EntryKind, name string) (domain.Resolution, error) {
	key := normalizeName(name)
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[kind][key]; ok {
		return domain.Resolution{Entry: s.withAliasesLocked(entry), Via: domain.ResolvedExact, Matched: key}, nil
	}
	if binding, ok := s.aliases[kind][key]; ok {
		entry := s.entries[kind][normalizeName(binding.canonical)]
		return domain.Resolution{Entry: s.withAliasesLocked(entry), Via: domain.ResolvedAlias, Matched: key}, nil
	}
	if res, ok := s.fuzzyLocked(kind, key); ok {
		return res, nil
	}
	if category, ok := s.categories[key]; ok {
		var matches []domain.KnowledgeEntry
		for _, entry := range s.entries[kind] {
			if entry.Category == category {
				matches = append(matches, s.withAliasesLocked(entry))
			}
		}
		sort.Slice(matches, func(i, j int) bool { return matches[i].Canonical < matches[j].Canonical })
		if len(matches) > 0 {
			return domain.Resolution{Entry: matches[0], Via: domain.ResolvedCategory, Matched: key, Matches: matches}, nil
		}
	}

	suggestions := s.suggestLocked(kind, key, domain.MaxCandidates)
	err := domain.NewError(domain.KindUnknownTarget,
		fmt.Sprintf("a %s named %q", kind, name),
		fmt.Sprintf("%q is not in the knowledge base", name),
		nextStepsFor(name, suggestions)...)
	err.Suggestions = suggestions
	return domain.Resolution{}, err
}

func nextStepsFor(name string, suggestions []string) []string {
	steps := make([]string, 0, len(suggestions)+1)
	for _, suggestion := range suggestions {
		steps = append(steps, fmt.Sprintf("Did you mean %q?", suggestion))
	}
	steps = append(steps, fmt.Sprintf(`Search nixpkgs: "search %s"`, name))
	return steps
}

// fuzzyLocked finds the unique closest canonical or alias within the edit
// bound. Ties between different entries are not resolved.
func (s *Store) fuzzyLocked(kind domain.EntryKind, key string) (domain.Resolution, bool) {
	limit := s.fuzzyLimit(key)
	best := limit + 1
	var bestCanonical, bestMatched string
	tie := false

	consider := func(candidate, canonical string) {
		d := levenshtein.ComputeDistance(key, candidate)
		switch {
		case d < best:
			best, bestCanonical, bestMatched, tie = d, canonical, candidate, false
		case d == best && canonical != bestCanonical:
			tie = true
		}
	}
	for name, entry := range s.entries[kind] {
		consider(name, entry.Canonical)
	}
	for alias, binding := range s.aliases[kind] {
		consider(alias, binding.canonical)
	}
	if best > limit || tie || bestCanonical == "" {
		return domain.Resolution{}, false
	}
	entry := s.entries[kind][normalizeName(bestCanonical)]
	return domain.Resolution{
		Entry:    s.withAliasesLocked(entry),
		Via:      domain.ResolvedFuzzy,
		Matched:  bestMatched,
		Distance: best,
	}, true
}

// fuzzyLimit shrinks the bound for short names, where two edits reach
// almost any other short word.
func (s *Store) fuzzyLimit(key string) int {
	if utf8.RuneCountInString(key) <= 4 && s.maxDistance > 1 {
		return 1
	}
	return s.maxDistance
}

// Suggest returns up to limit canonical names ranked by edit distance.
func (s *Store) Suggest(kind domain.EntryKind, name string, limit int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.suggestLocked(kind, normalizeName(name), limit)
}

func (s *Store) suggestLocked(kind domain.EntryKind, key string, limit int) []string {
	type scored struct {
		canonical string
		distance  int
	}
	bestByCanonical := map[string]int{}
	note := func(candidate, canonical string) {
		d := levenshtein.ComputeDistance(key, candidate)
		if prev, ok := bestByCanonical[canonical]; !ok || d < prev {
			bestByCanonical[canonical] = d
		}
	}
	for name, entry := range s.entries[kind] {
		note(name, entry.Canonical)
	}
	for alias, binding := range s.aliases[kind] {
		note(alias, binding.canonical)
	}

	cutoff := s.maxDistance + 2
	var ranked []scored
	for canonical, d := range bestByCanonical {
		if d <= cutoff {
			ranked = append(ranked, scored{canonical, d})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].canonical < ranked[j].canonical
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.canonical)
	}
	return out
}

// IsKnownName reports whether word is a canonical name or alias of any kind.
func (s *Store) IsKnownName(word string) bool {
	key := normalizeName(word)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for kind := range s.entries {
		if _, ok := s.entries[kind][key]; ok {
			return true
		}
		if _, ok := s.aliases[kind][key]; ok {
			return true
		}
	}
	return false
}

// IsAlias reports whether alias is currently bound for kind.
func (s *Store) IsAlias(kind domain.EntryKind, alias string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.aliases[kind][normalizeName(alias)]
	return ok
}

// Operation returns a command template family by name.
func (s *Store) Operation(name string) (domain.Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.operations[name]
	return op, ok
}

// Operations lists every operation sorted by name.
func (s *Store) Operations() []domain.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ops := make([]domain.Operation, 0, len(s.operations))
	for _, op := range s.operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// Entries lists the entries of a kind with their aliases, sorted by name.
func (s *Store) Entries(kind domain.EntryKind) []domain.KnowledgeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.KnowledgeEntry, 0, len(s.entries[kind]))
	for _, entry := range s.entries[kind] {
		out = append(out, s.withAliasesLocked(entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canonical < out[j].Canonical })
	return out
}

// Count returns the number of entries across kinds.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, byName := range s.entries {
		n += len(byName)
	}
	return n
}

// Version increases on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) withAliasesLocked(entry *domain.KnowledgeEntry) domain.KnowledgeEntry {
	out := *entry
	out.Aliases = nil
	for alias, binding := range s.aliases[entry.Kind] {
		if binding.canonical == entry.Canonical {
			out.Aliases = append(out.Aliases, alias)
		}
	}
	sort.Strings(out.Aliases)
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

var _ ports.KnowledgeBase = (*Store)(nil)
