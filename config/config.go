// Package config loads the pcfg tool configuration from a YAML file and
// PCFG_* environment variables.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Grammar GrammarConfig `yaml:"grammar"`
	Corpus  CorpusConfig  `yaml:"corpus"`
	Server  ServerConfig  `yaml:"server"`
	Output  OutputConfig  `yaml:"output"`
}

// LogConfig holds logging settings. Verbosity follows commonlog: 0 logs
// errors and warnings only, each step up adds a level.
type LogConfig struct {
	Verbosity int    `yaml:"verbosity" env:"PCFG_LOG_VERBOSITY" env-default:"0"`
	File      string `yaml:"file"      env:"PCFG_LOG_FILE"`
}

// GrammarConfig holds grammar loading settings.
type GrammarConfig struct {
	Path      string  `yaml:"path"      env:"PCFG_GRAMMAR"           env-default:""`
	Tolerance float64 `yaml:"tolerance" env:"PCFG_GRAMMAR_TOLERANCE" env-default:"1e-5"`
}

// CorpusConfig holds batch parsing settings.
type CorpusConfig struct {
	Workers int `yaml:"workers" env:"PCFG_CORPUS_WORKERS" env-default:"4"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"PCFG_SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"PCFG_SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"PCFG_SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"PCFG_SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxTokens       int           `yaml:"max_tokens"       env:"PCFG_SERVER_MAX_TOKENS"       env-default:"100"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"PCFG_SERVER_MAX_BODY_BYTES"   env-default:"1048576"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Format string `yaml:"format" env:"PCFG_OUTPUT_FORMAT" env-default:"tree"`
}
