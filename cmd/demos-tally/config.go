package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	flag "github.com/spf13/pflag"
)

// secretKeyEnv is the environment variable holding the trustee key, so it
// does not need to appear in the process arguments.
const secretKeyEnv = "DEMOS_TALLY_SECRET_KEY"

// Config is the configuration of a tally run. It can be loaded from a TOML
// file; flags given on the command line take precedence.
type Config struct {
	ElectionURL string `toml:"election_url"`
	SecretKey   string `toml:"secret_key"`
	Workers     int    `toml:"workers"`
	PageSize    int    `toml:"page_size"`
	Timeout     string `toml:"timeout"`
	LogLevel    string `toml:"log_level"`
	LogOutput   string `toml:"log_output"`
}

func defaultConfig() *Config {
	return &Config{
		Workers:   1,
		PageSize:  100,
		Timeout:   "30s",
		LogLevel:  "info",
		LogOutput: "stderr",
	}
}

// registerFlags binds the configuration fields to the flag set.
func (c *Config) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ElectionURL, "election-url", c.ElectionURL, "election resource of the bulletin board")
	fs.StringVar(&c.SecretKey, "secret-key", c.SecretKey, "base64 trustee key (or set "+secretKeyEnv+")")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "number of concurrent tally workers")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "ballots requested per page")
	fs.StringVar(&c.Timeout, "timeout", c.Timeout, "timeout of every request")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&c.LogOutput, "log-output", c.LogOutput, "log output (stdout, stderr or a file path)")
}

// loadFile reads a TOML file and copies every value whose flag was not set
// on the command line.
func (c *Config) loadFile(path string, fs *flag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	file := &Config{}
	if err := toml.Unmarshal(data, file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	set := func(flagName, key string, apply func()) {
		if fs.Changed(flagName) || !tree.Has(key) {
			return
		}
		apply()
	}
	set("election-url", "election_url", func() { c.ElectionURL = file.ElectionURL })
	set("secret-key", "secret_key", func() { c.SecretKey = file.SecretKey })
	set("workers", "workers", func() { c.Workers = file.Workers })
	set("page-size", "page_size", func() { c.PageSize = file.PageSize })
	set("timeout", "timeout", func() { c.Timeout = file.Timeout })
	set("log-level", "log_level", func() { c.LogLevel = file.LogLevel })
	set("log-output", "log_output", func() { c.LogOutput = file.LogOutput })
	return nil
}

// applyEnv reads the trustee key from the environment when no flag or file
// set it.
func (c *Config) applyEnv() {
	if c.SecretKey == "" {
		c.SecretKey = os.Getenv(secretKeyEnv)
	}
}
