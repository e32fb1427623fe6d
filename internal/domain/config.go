package domain

// Config mirrors ~/.nixsay/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Preferences         Preferences       `yaml:"preferences"`
	Knowledge           KnowledgeSettings `yaml:"knowledge"`
	Security            SecuritySettings  `yaml:"security"`
	Execution           ExecutionSettings `yaml:"execution"`
	Feedback            FeedbackSettings  `yaml:"feedback"`
	Session             SessionSettings   `yaml:"session"`
}

// Preferences captures user level toggles.
type Preferences struct {
	PreferredMethod     string  `yaml:"preferred_method"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	Personality         string  `yaml:"personality"`
}

// KnowledgeSettings configures the knowledge store layers.
type KnowledgeSettings struct {
	OverridesFile   string `yaml:"overrides_file"`
	MaxEditDistance int    `yaml:"max_edit_distance"`
}

// SecuritySettings defines risk classification behavior.
type SecuritySettings struct {
	RulesFile     string `yaml:"rules_file"`
	UnmatchedTier string `yaml:"unmatched_tier"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	QueryTimeout    string `yaml:"query_timeout"`
	NetworkTimeout  string `yaml:"network_timeout"`
	MutationTimeout string `yaml:"mutation_timeout"`
	MaxAttempts     int    `yaml:"max_attempts"`
	BackoffBase     string `yaml:"backoff_base"`
	BackoffMax      string `yaml:"backoff_max"`
	ReadOnlyWorkers int    `yaml:"read_only_workers"`
}

// FeedbackSettings configures recording and alias promotion.
type FeedbackSettings struct {
	Enabled            bool   `yaml:"enabled"`
	Database           string `yaml:"database"`
	PromotionThreshold int    `yaml:"promotion_threshold"`
	BufferSize         int    `yaml:"buffer_size"`
	MemoryLimit        int    `yaml:"memory_limit"`
}

// SessionSettings bounds follow-up context.
type SessionSettings struct {
	MaxTurns int    `yaml:"max_turns"`
	TTL      string `yaml:"ttl"`
}
