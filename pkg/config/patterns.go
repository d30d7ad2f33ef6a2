package config

import (
	"fmt"
	"regexp"
)

// regexSnapshot wraps a compiled regular expression. Patterns are compiled
// once at load time rather than per-match (spec.md's original tool
// recompiles the pattern on every call; compiling once is a pure
// performance improvement that changes no observable behavior).
type regexSnapshot struct {
	re *regexp.Regexp
}

func compilePatterns(cfg *Config) error {
	for i := range cfg.Backups {
		b := &cfg.Backups[i]

		pool, err := regexp.Compile(b.PoolPattern)
		if err != nil {
			return fmt.Errorf("pool_regex %q: %w", b.PoolPattern, err)
		}
		b.pool = &regexSnapshot{re: pool}

		if err := b.Full.compile(); err != nil {
			return fmt.Errorf("full.snapshot_regex: %w", err)
		}
		if err := b.Incremental.compile(); err != nil {
			return fmt.Errorf("incremental.snapshot_regex: %w", err)
		}
	}
	return nil
}

func (t *TierPolicy) compile() error {
	re, err := regexp.Compile(t.SnapshotPattern)
	if err != nil {
		return fmt.Errorf("%q: %w", t.SnapshotPattern, err)
	}
	t.re = &regexSnapshot{re: re}
	return nil
}

// PoolRegexp returns the compiled pool-path pattern. Panics if the policy
// was constructed without going through Load — callers that build
// BackupPolicy values directly (e.g. in tests) must call Compile first.
func (b *BackupPolicy) PoolRegexp() *regexp.Regexp {
	if b.pool == nil {
		panic("config: BackupPolicy used before Compile")
	}
	return b.pool.re
}

// SnapshotRegexp returns the compiled snapshot-name pattern for this tier.
func (t *TierPolicy) SnapshotRegexp() *regexp.Regexp {
	if t.re == nil {
		panic("config: TierPolicy used before Compile")
	}
	return t.re.re
}

// Compile compiles the pool and tier patterns on a BackupPolicy built
// directly (outside of Load), such as in tests or programmatic callers.
func (b *BackupPolicy) Compile() error {
	cfg := &Config{Backups: []BackupPolicy{*b}}
	if err := compilePatterns(cfg); err != nil {
		return err
	}
	*b = cfg.Backups[0]
	return nil
}
