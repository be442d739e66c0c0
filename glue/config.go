// Package glue is the top-level orchestrator:
// it owns a storage.Backend, a translate.Translator, a plan.Planner and an
// exec.Engine, and exposes the two embedding entry points — Execute (parse,
// translate, plan, run) and Plan (parse, translate, plan, stop) — that tie
// the whole pipeline together, mirroring how a single command-line
// entry point ties a parse→translate→plan→execute pipeline together.
package glue

import "github.com/BurntSushi/toml"

// Config is the engine-level configuration SPEC_FULL's ambient stack adds
// around the core pipeline: an auto-commit mode, an advisory isolation
// string, and a flag for rejecting unsupported-feature statements at plan
// time. Decoded from TOML via github.com/BurntSushi/toml. Glue keeps the
// Config it was built with, but nothing in the pipeline reads these
// fields: statements outside an explicit transaction always auto-commit,
// no Glue method exposes the isolation string, and the planner does not
// check backend features.
//
// AutoCommit has no zero-value-safe default (an absent TOML key and an
// explicit `auto_commit = false` are indistinguishable once decoded), so
// New takes it as documented: a zero Config runs with auto-commit on,
// matching "auto-commit is a per-statement convenience" framing as
// the ordinary mode, not an opt-in.
type Config struct {
	AutoCommit                  bool   `toml:"auto_commit"`
	IsolationAdvisory           string `toml:"isolation_advisory"`
	RejectUnsupportedAtPlanTime bool   `toml:"reject_unsupported_at_plan_time"`
}

// DefaultConfig is what New uses in place of a caller-supplied zero Config.
func DefaultConfig() Config {
	return Config{
		AutoCommit:                  true,
		IsolationAdvisory:           "snapshot",
		RejectUnsupportedAtPlanTime: true,
	}
}

// LoadConfig reads and decodes a TOML config file at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
