package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultPolicyYAML contains the embedded default security policy.
//
//go:embed defaults/policy.yaml
var DefaultPolicyYAML []byte

// DefaultCorpusYAML contains the fixed three-tier evaluation corpus.
//
//go:embed defaults/corpus.yaml
var DefaultCorpusYAML []byte
