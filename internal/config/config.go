// Package config loads compiler-wide settings from the process
// environment. The teacher's own go.mod already names
// github.com/caarlos0/env/v6 as a dependency without exercising it
// anywhere in its source; this package is its first caller.
package config

import "github.com/caarlos0/env/v6"

// CompilerConfig holds compiler-wide settings read from the environment
// rather than from per-invocation CLI flags. Load parses them, but no other
// package in this module calls Load or reads these fields: the emitter,
// the constant pool, the container writer and the diagnostics all behave
// the same whatever values are set here.
type CompilerConfig struct {
	// MaxBranchOffset is a ceiling on the signed relative jump offset. The
	// emitter does not consult it; it raises BranchTooFar only outside the
	// fixed i16 range.
	MaxBranchOffset int `env:"IRONPLC_MAX_BRANCH_OFFSET" envDefault:"32767"`

	// MaxConstantPoolSize is a ceiling on the number of distinct constants
	// in one function's pool. No pool size is checked against it.
	MaxConstantPoolSize int `env:"IRONPLC_MAX_CONSTANT_POOL_SIZE" envDefault:"65535"`

	// ContainerFlagDebugSection names the container's debug-section flag
	// (spec §6.1 flags bit 1). The container writer emits no debug section.
	ContainerFlagDebugSection bool `env:"IRONPLC_CONTAINER_DEBUG_SECTION" envDefault:"false"`

	// ProblemsCatalogURLBase is a base URL for problem-code links (spec
	// §6.4). No diagnostic output in this module builds links from it.
	ProblemsCatalogURLBase string `env:"IRONPLC_PROBLEMS_URL_BASE" envDefault:"https://ironplc.example/problems"`
}

// Load reads a CompilerConfig from the process environment, applying the
// struct tag defaults for anything unset.
func Load() (*CompilerConfig, error) {
	cfg := &CompilerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
