// Package assets embeds the default files written to ~/.nixsay on first run.
package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultGuardrailYAML contains the embedded default risk rules.
//
//go:embed defaults/guardrail.yaml
var DefaultGuardrailYAML []byte

// DefaultKnowledgeYAML contains the built-in package and service catalog.
//
//go:embed defaults/knowledge.yaml
var DefaultKnowledgeYAML []byte
