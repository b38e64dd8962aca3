package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Water   WaterConfig   `yaml:"water"`
	Scanner ScannerConfig `yaml:"scanner"`
	Upload  UploadConfig  `yaml:"upload"`
	Auth    AuthConfig    `yaml:"auth"`
	Users   []User        `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WaterConfig configures the upstream water service client.
type WaterConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ScannerConfig configures the external virus scanner. The scanner signals an
// infection with a specific exit code; any other non-zero exit is a hard
// failure. Disabled short-circuits scanning to "clean" and must only be set
// in non-production environments.
type ScannerConfig struct {
	Command          string   `yaml:"command"`
	Args             []string `yaml:"args"`
	InfectedExitCode int      `yaml:"infected_exit_code"`
	Disabled         bool     `yaml:"disabled"`
}

// UploadConfig configures the intake pipeline and the waiting-page poller.
type UploadConfig struct {
	ScratchDir        string `yaml:"scratch_dir"`
	MaxPollAttempts   int    `yaml:"max_poll_attempts"`
	PollSeconds       int    `yaml:"poll_seconds"`
	ScratchTTLMinutes int    `yaml:"scratch_ttl_minutes"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// User is a portal account. Each user acts for exactly one company, which
// scopes the returns they can upload and the templates they can download.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	CompanyID    string `yaml:"company_id"`
	CompanyName  string `yaml:"company_name"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Water.TimeoutSeconds == 0 {
		cfg.Water.TimeoutSeconds = 60
	}
	if cfg.Scanner.Command == "" {
		cfg.Scanner.Command = "clamdscan"
	}
	if cfg.Scanner.InfectedExitCode == 0 {
		cfg.Scanner.InfectedExitCode = 1
	}
	if cfg.Upload.ScratchDir == "" {
		cfg.Upload.ScratchDir = os.TempDir()
	}
	if cfg.Upload.MaxPollAttempts == 0 {
		cfg.Upload.MaxPollAttempts = 120
	}
	if cfg.Upload.PollSeconds == 0 {
		cfg.Upload.PollSeconds = 5
	}
	if cfg.Upload.ScratchTTLMinutes == 0 {
		cfg.Upload.ScratchTTLMinutes = 60
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}

	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
