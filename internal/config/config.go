package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Specification struct {
	GithubToken string            `yaml:"githubToken" envconfig:"GITHUB_TOKEN"`
	Database    string            `yaml:"database" envconfig:"DB_URL"`
	LogLevel    string            `yaml:"logLevel" split_words:"true"`
	Port        int               `yaml:"port" split_words:"true"`
	Environment string            `yaml:"environment"`
	Workers     int               `yaml:"workers"`
	Auth        AuthSpecification `yaml:"auth"`

	flags *pflag.FlagSet `ignored:"true"`
}

type AuthSpecification struct {
	Enabled            bool   `yaml:"enabled"`
	JwtSecret          string `yaml:"jwtSecret" split_words:"true"`
	GithubClientID     string `yaml:"githubClientID" split_words:"true"`
	GithubClientSecret string `yaml:"githubClientSecret" split_words:"true"`
	GithubRedirectURL  string `yaml:"githubRedirectURL" split_words:"true"`
}

const envPrefix = "CODEFINDER"

// IsProduction reports whether detailed error diagnostics should be hidden
// from API responses.
func (s *Specification) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// PersistenceEnabled reports whether a database is configured for saved
// searches. The search pipeline itself never needs one.
func (s *Specification) PersistenceEnabled() bool {
	return strings.TrimSpace(s.Database) != ""
}

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load => defaults < YAML < env < flags.
// configPath may be ""; if so we auto-discover.
func Load(configPath string, fs *pflag.FlagSet) (Specification, error) {
	var cfg Specification

	// set defaults (lowest precedence)
	setDefaults(&cfg)
	bindFlags(fs, &cfg)

	// config file
	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/codefinder.yaml",
				"config/config.yaml",
				"./codefinder.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	// env overrides config file
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	// flags override everything
	if err := fs.Parse(os.Args[1:]); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	// Minimal sanity
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.JwtSecret) == "" {
		return Specification{}, fmt.Errorf("CODEFINDER_AUTH_JWT_SECRET is required when auth is enabled")
	}
	return cfg, nil
}

// ---------- helpers ----------

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range os.Args {
		if a == "--config" {
			if i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", os.Args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("github-token", c.GithubToken, "GitHub API token for code search")
	fs.String("db-url", c.Database, "Database URL (DSN); empty disables saved searches")
	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")
	fs.Int("port", c.Port, "API server port")
	fs.String("environment", c.Environment, "Deployment environment (production hides error details)")
	fs.Int("workers", c.Workers, "Concurrent per-hit fetches in the search pipeline")

	fs.Bool("auth-enabled", c.Auth.Enabled, "Enable GitHub OAuth authentication")
	fs.String("auth-jwt-secret", c.Auth.JwtSecret, "JWT secret for signing tokens")
	fs.String("auth-github-client-id", c.Auth.GithubClientID, "GitHub OAuth App Client ID")
	fs.String("auth-github-client-secret", c.Auth.GithubClientSecret, "GitHub OAuth App Client Secret")
	fs.String("auth-github-redirect-url", c.Auth.GithubRedirectURL, "GitHub OAuth App Redirect URL")

	// Used later for usage/help
	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			*dst = v
		}
	}

	// (We ignore --config here; it's for discovery.)
	setStr("github-token", &c.GithubToken)
	setStr("db-url", &c.Database)
	setStr("log-level", &c.LogLevel)
	setInt("port", &c.Port)
	setStr("environment", &c.Environment)
	setInt("workers", &c.Workers)

	setBool("auth-enabled", &c.Auth.Enabled)
	setStr("auth-jwt-secret", &c.Auth.JwtSecret)
	setStr("auth-github-client-id", &c.Auth.GithubClientID)
	setStr("auth-github-client-secret", &c.Auth.GithubClientSecret)
	setStr("auth-github-redirect-url", &c.Auth.GithubRedirectURL)
}

func setDefaults(c *Specification) {
	c.LogLevel = "info"
	c.GithubToken = ""
	c.Database = ""
	c.Environment = "development"
	c.Workers = 8
	c.Port = 8080
	c.Auth.Enabled = false
	c.Auth.GithubRedirectURL = "http://localhost:3000/auth/callback"
}
