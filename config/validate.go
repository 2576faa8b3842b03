package config

import (
	"fmt"
	"slices"
)

// Formats lists the accepted values of output.format.
var Formats = []string{"tree", "indented", "json", "yaml"}

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must be >= 0 (got %d)", c.Log.Verbosity)
	}
	if c.Grammar.Tolerance <= 0 || c.Grammar.Tolerance >= 1 {
		return fmt.Errorf("grammar.tolerance must be in (0,1) (got %v)", c.Grammar.Tolerance)
	}
	if c.Corpus.Workers < 1 {
		return fmt.Errorf("corpus.workers must be >= 1 (got %d)", c.Corpus.Workers)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.MaxTokens < 1 {
		return fmt.Errorf("server.max_tokens must be >= 1 (got %d)", c.Server.MaxTokens)
	}
	if c.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("server.max_body_bytes must be >= 1 (got %d)", c.Server.MaxBodyBytes)
	}
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("output.format must be one of %v (got %q)", Formats, c.Output.Format)
	}
	return nil
}
