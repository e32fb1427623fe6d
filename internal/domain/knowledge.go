package domain

// Method selects how a package operation is carried out.
type Method string

const (
	MethodSystem    Method = "system"
	MethodUser      Method = "user"
	MethodEphemeral Method = "ephemeral"
)

// ParseMethod normalises a method name, reporting false for unknown values.
func ParseMethod(value string) (Method, bool) {
	switch Method(value) {
	case MethodSystem, MethodUser, MethodEphemeral:
		return Method(value), true
	}
	switch value {
	case "system-wide", "global", "declarative":
		return MethodSystem, true
	case "profile", "imperative", "local":
		return MethodUser, true
	case "temporary", "shell", "try":
		return MethodEphemeral, true
	}
	return "", false
}

// EntryKind separates the package and service namespaces.
type EntryKind string

const (
	KindPackage EntryKind = "package"
	KindService EntryKind = "service"
)

// OperationClass drives timeout and retry selection.
type OperationClass string

const (
	ClassQuery    OperationClass = "query"
	ClassNetwork  OperationClass = "network"
	ClassMutation OperationClass = "mutation"
)

// KnowledgeLayer orders the sources of entries and aliases. Higher wins.
type KnowledgeLayer int

const (
	LayerBuiltin KnowledgeLayer = iota
	LayerLearned
	LayerOverride
)

func (l KnowledgeLayer) String() string {
	switch l {
	case LayerLearned:
		return "learned"
	case LayerOverride:
		return "override"
	default:
		return "builtin"
	}
}

// KnowledgeEntry is a canonical package or service name with its aliases.
// Templates, when set, replace the operation template for this entry.
type KnowledgeEntry struct {
	Canonical   string            `yaml:"canonical"`
	Kind        EntryKind         `yaml:"kind"`
	Category    string            `yaml:"category,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Aliases     []string          `yaml:"aliases,omitempty"`
	Templates   map[Method]string `yaml:"templates,omitempty"`
	Version     uint64            `yaml:"-"`
	Layer       KnowledgeLayer    `yaml:"-"`
}

// Problem maps a symptom the user sees to its usual cause and fix.
type Problem struct {
	Symptom    string `yaml:"symptom"`
	Cause      string `yaml:"cause"`
	Solution   string `yaml:"solution"`
	Prevention string `yaml:"prevention,omitempty"`
}

// Practice is a recommended way of working on one topic.
type Practice struct {
	Topic    string `yaml:"topic"`
	Practice string `yaml:"practice"`
	Reason   string `yaml:"reason,omitempty"`
	Example  string `yaml:"example,omitempty"`
}

// Operation is a command template family, e.g. "install" or "collect-garbage".
type Operation struct {
	Name          string
	Action        Action
	Description   string
	Explanation   string
	TargetKind    TargetKind
	Templates     map[Method]string
	DefaultMethod Method
	Class         OperationClass
	Idempotent    bool
	Interactive   bool // needs a terminal; never run with captured output

	// Per-method variants of Explanation and Interactive.
	MethodExplanations map[Method]string
	InteractiveMethods map[Method]bool
}

// Methods reports whether the operation varies by method.
func (o Operation) Methods() bool {
	return len(o.Templates) > 1
}

// Resolution is the outcome of a knowledge lookup.
type Resolution struct {
	Entry    KnowledgeEntry
	Via      ResolutionKind
	Matched  string
	Distance int
	Matches  []KnowledgeEntry // every entry a category synonym points to
}

// Ambiguous reports whether the lookup matched more than one entry.
func (r Resolution) Ambiguous() bool {
	return len(r.Matches) > 1
}

// Command is a rendered, validated invocation. Argv is what runs; Text is
// what the user and the risk rules see.
type Command struct {
	Text        string
	Argv        []string
	Operation   string
	Target      string
	Method      Method
	Class       OperationClass
	Idempotent  bool
	Interactive bool
	Explanation string
}

// LearnedAlias is a promoted alias persisted between sessions.
type LearnedAlias struct {
	Alias     string
	Canonical string
	Kind      EntryKind
	Support   int
	Version   uint64
}
