// Package config holds the typed run configuration, merged from an optional
// YAML file and command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chesscom/workreport/internal/domain"
)

const (
	DefaultOrganization = "ChessCom"
	DefaultRepository   = "chess"
	DefaultSince        = "today"
	DefaultSMTPPort     = 587
)

// Config is the full contract of one run. Every field maps 1:1 onto a flag
// or argument, and onto a key of the optional YAML file.
type Config struct {
	To           []string `yaml:"to"`
	From         string   `yaml:"from"`
	Token        string   `yaml:"token"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	Author       string   `yaml:"author"`
	Organization string   `yaml:"organization"`
	Repository   string   `yaml:"repository"`
	Branches     []string `yaml:"branch"`
	Dir          string   `yaml:"dir"`
	Since        string   `yaml:"since"`
	SMTPServer   string   `yaml:"smtp_server"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUsername string   `yaml:"smtp_username"`
	SMTPPassword string   `yaml:"smtp_password"`
}

// New returns a Config carrying the documented defaults.
func New() Config {
	return Config{
		Organization: DefaultOrganization,
		Repository:   DefaultRepository,
		Dir:          ".",
		Since:        DefaultSince,
		SMTPPort:     DefaultSMTPPort,
	}
}

// LoadFile merges the YAML file at path into the config. Keys absent from
// the file leave the current values untouched; a key the config does not
// know is a fatal configuration error.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrConfig, path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: parse %s: %v", domain.ErrConfig, path, err)
	}
	return nil
}

// Validate checks the contract before any component runs.
func (c Config) Validate() error {
	if len(c.To) == 0 {
		return fmt.Errorf("%w: at least one recipient address is required", domain.ErrConfig)
	}
	if c.Author == "" {
		return fmt.Errorf("%w: author is required", domain.ErrConfig)
	}

	hasToken := c.Token != ""
	hasBasic := c.Username != "" || c.Password != ""
	switch {
	case hasToken && hasBasic:
		return fmt.Errorf("%w: use either token or username/password, not both", domain.ErrConfig)
	case !hasToken && !hasBasic:
		return fmt.Errorf("%w: either token or username/password is required", domain.ErrConfig)
	case hasBasic && (c.Username == "" || c.Password == ""):
		return fmt.Errorf("%w: username and password must be supplied together", domain.ErrConfig)
	}

	if c.SMTPServer == "" {
		return fmt.Errorf("%w: smtp_server is required", domain.ErrConfig)
	}
	if c.SMTPUsername == "" || c.SMTPPassword == "" {
		return fmt.Errorf("%w: smtp_username and smtp_password are required", domain.ErrConfig)
	}
	return nil
}
