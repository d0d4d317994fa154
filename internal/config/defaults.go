package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProjectDir is the per-project directory holding config and data.
const ProjectDir = ".pinlog"

// DefaultConfigYAML is the file written by `pinlog init`.
const DefaultConfigYAML = `# pinlog configuration
#
# Every value can be overridden with a PINLOG_* environment variable,
# e.g. PINLOG_STORE_BACKEND=sqlite.

log:
  level: info      # debug, info, warn, error
  format: auto     # auto, text, json

store:
  backend: file    # memory, file, sqlite, redis
  path: .pinlog/data
  key: workouts
  redis:
    addr: localhost:6379
    password: ""
    db: 0
    key_prefix: "pinlog:"
  retry:
    max_attempts: 3
    base_delay: 50ms
    max_delay: 1s

server:
  host: 127.0.0.1
  port: 8080
  cors_origins:
    - "*"

map:
  zoom: 13
`

// DefaultConfigPath returns the project config path under dir.
func DefaultConfigPath(dir string) string {
	return filepath.Join(dir, ProjectDir, "config.yaml")
}

// WriteDefaultConfig writes DefaultConfigYAML to path. An existing file is
// only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking config: %w", err)
		}
	}
	if err := AtomicWrite(path, []byte(DefaultConfigYAML)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
