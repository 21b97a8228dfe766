// Package config loads the game server settings: defaults, then a YAML file,
// then environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"riskserver/gamemaster"
	"riskserver/meta"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfig     = "RISK_CONFIG"
	EnvSecretCode = "RISK_SECRET_CODE"
)

type Config struct {
	Listen                string        `yaml:"listen"`
	SecretCode            string        `yaml:"secret_code"`
	Board                 Board         `yaml:"board"`
	StartingArmies        int           `yaml:"starting_armies"`
	MaxArmiesPerTerritory int           `yaml:"max_armies_per_territory"`
	AgentTimeout          time.Duration `yaml:"agent_timeout"`
	StatusCacheTTL        time.Duration `yaml:"status_cache_ttl"`
	QueryRate             QueryRate     `yaml:"query_rate"`
	// ResultsDir, when set, receives a CSV of the final standings of every game.
	ResultsDir string `yaml:"results_dir"`
	Log        Log    `yaml:"log"`
}

type Board struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
}

// QueryRate throttles the read-only endpoints; a zero limit disables it.
type QueryRate struct {
	Limit float64 `yaml:"limit"`
	Burst int     `yaml:"burst"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Default() *Config {
	return &Config{
		Listen:         meta.DEFAULT_LISTEN,
		Board:          Board{Height: meta.DEFAULT_HEIGHT, Width: meta.DEFAULT_WIDTH},
		StartingArmies: meta.DEFAULT_STARTING_ARMIES,
		AgentTimeout:   meta.DEFAULT_AGENT_TIMEOUT,
		StatusCacheTTL: meta.DEFAULT_STATUS_TTL,
		Log:            Log{Level: "info"},
	}
}

// LoadFile merges the YAML file at path into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Board.Height <= 0 || c.Board.Width <= 0 {
		errs = append(errs, fmt.Errorf("board must be at least 1x1, got %dx%d", c.Board.Height, c.Board.Width))
	}
	if c.StartingArmies <= 0 {
		errs = append(errs, fmt.Errorf("starting_armies must be positive, got %d", c.StartingArmies))
	}
	if c.MaxArmiesPerTerritory < 0 {
		errs = append(errs, fmt.Errorf("max_armies_per_territory must not be negative, got %d", c.MaxArmiesPerTerritory))
	}
	if c.AgentTimeout <= 0 {
		errs = append(errs, fmt.Errorf("agent_timeout must be positive, got %s", c.AgentTimeout))
	}
	if c.SecretCode == "" {
		errs = append(errs, fmt.Errorf("secret_code is required (or set %s)", EnvSecretCode))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// GameOptions converts the game settings for the game master.
func (c *Config) GameOptions() gamemaster.Options {
	return gamemaster.Options{
		Height:                c.Board.Height,
		Width:                 c.Board.Width,
		StartingArmies:        c.StartingArmies,
		MaxArmiesPerTerritory: c.MaxArmiesPerTerritory,
		SecretCode:            c.SecretCode,
		AgentTimeout:          c.AgentTimeout,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// --config or RISK_CONFIG, RISK_SECRET_CODE, and the flags set in args.
// It returns pflag.ErrHelp when help was requested.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("riskserver", pflag.ContinueOnError)
	path := fs.String("config", os.Getenv(EnvConfig), "path to a YAML config file")
	flags := Default()
	fs.StringVar(&flags.Listen, "listen", flags.Listen, "address to serve the game API on")
	fs.StringVar(&flags.SecretCode, "secret-code", "", "secret code required to start and restart games")
	fs.IntVar(&flags.Board.Height, "height", flags.Board.Height, "board rows")
	fs.IntVar(&flags.Board.Width, "width", flags.Board.Width, "board columns")
	fs.IntVar(&flags.StartingArmies, "starting-armies", flags.StartingArmies, "armies each player deploys")
	fs.IntVar(&flags.MaxArmiesPerTerritory, "max-armies", flags.MaxArmiesPerTerritory, "army cap per territory during deployment, 0 for none")
	fs.DurationVar(&flags.AgentTimeout, "agent-timeout", flags.AgentTimeout, "deadline for each agent request")
	fs.DurationVar(&flags.StatusCacheTTL, "status-ttl", flags.StatusCacheTTL, "how long a status view is cached, 0 to disable")
	fs.StringVar(&flags.ResultsDir, "results-dir", "", "directory for final standings CSV files")
	fs.StringVar(&flags.Log.Level, "log-level", flags.Log.Level, "zerolog level")
	fs.BoolVar(&flags.Log.Pretty, "log-pretty", false, "human readable console logs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *path != "" {
		if err := cfg.LoadFile(*path); err != nil {
			return nil, err
		}
	}
	if secret := os.Getenv(EnvSecretCode); secret != "" {
		cfg.SecretCode = secret
	}
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = flags.Listen
		case "secret-code":
			cfg.SecretCode = flags.SecretCode
		case "height":
			cfg.Board.Height = flags.Board.Height
		case "width":
			cfg.Board.Width = flags.Board.Width
		case "starting-armies":
			cfg.StartingArmies = flags.StartingArmies
		case "max-armies":
			cfg.MaxArmiesPerTerritory = flags.MaxArmiesPerTerritory
		case "agent-timeout":
			cfg.AgentTimeout = flags.AgentTimeout
		case "status-ttl":
			cfg.StatusCacheTTL = flags.StatusCacheTTL
		case "results-dir":
			cfg.ResultsDir = flags.ResultsDir
		case "log-level":
			cfg.Log.Level = flags.Log.Level
		case "log-pretty":
			cfg.Log.Pretty = flags.Log.Pretty
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
