package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName        = "applycli"
	ConfigFileName = "config.json"
	StoreFileName  = "applycli.db"
)

//go:embed schema.json
var schemaJSON string

// Config is the immutable run configuration snapshot loaded at startup.
type Config struct {
	SearchQueries            []string       `json:"search_queries"`
	Locations                []string       `json:"locations,omitempty"`
	MinExperienceYears       int            `json:"min_experience_years"`
	MaxExperienceYears       int            `json:"max_experience_years"`
	BlacklistedCompanies     []string       `json:"blacklisted_companies,omitempty"`
	MaxApplicationsPerRun    int            `json:"max_applications_per_run"`
	DelayBetweenApplications int            `json:"delay_between_applications_seconds"`
	OutputDir                string         `json:"output_dir"`
	Proxies                  []string       `json:"proxies,omitempty"`
	Profile                  models.Profile `json:"profile"`
}

// Credentials authenticate the portal session. They never live in
// config.json; only in .env or the environment.
type Credentials struct {
	Email    string
	Password string
}

func DefaultConfig() Config {
	return Config{
		SearchQueries: []string{
			"Backend Developer Java 3 years",
			"Java Spring Boot Backend Developer",
		},
		MinExperienceYears:       envInt("APPLYCLI_MIN_EXPERIENCE", 3),
		MaxExperienceYears:       envInt("APPLYCLI_MAX_EXPERIENCE", 8),
		MaxApplicationsPerRun:    envInt("APPLYCLI_MAX_APPLICATIONS", 10),
		DelayBetweenApplications: envInt("APPLYCLI_DELAY_SECONDS", 30),
		OutputDir:                envString("APPLYCLI_OUTPUT_DIR", "output"),
	}
}

// RunConfig converts the loaded config into the orchestrator's snapshot.
func (c Config) RunConfig() models.RunConfig {
	return models.RunConfig{
		Policy: models.Policy{
			MinExperienceYears:   c.MinExperienceYears,
			MaxExperienceYears:   c.MaxExperienceYears,
			BlacklistedCompanies: c.BlacklistedCompanies,
		},
		MaxApplicationsPerRun:    c.MaxApplicationsPerRun,
		DelayBetweenApplications: time.Duration(c.DelayBetweenApplications) * time.Second,
		SearchQueries:            c.SearchQueries,
		Locations:                c.Locations,
	}
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// StorePath is the default location of the job-record database.
func StorePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StoreFileName), nil
}

// Load reads config.json (JSON5 accepted), validates it against the embedded
// schema, and applies defaults for anything unset. A missing file yields the
// defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load against an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := validate(data); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validate checks the JSON5-decoded document against the embedded schema so
// typos surface before a run starts rather than as odd behaviour mid-run.
func validate(data []byte) error {
	var doc any
	if err := json5.Unmarshal(data, &doc); err != nil {
		return err
	}

	schema, err := jsonschema.CompileString("config.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	return schema.Validate(doc)
}

// LoadCredentials reads NAUKRI_EMAIL and NAUKRI_PASSWORD, preferring the
// process environment and falling back to a .env file in the working
// directory.
func LoadCredentials() (Credentials, error) {
	// Best effort: a missing .env is fine when the variables are exported.
	_ = godotenv.Load()

	creds := Credentials{
		Email:    strings.TrimSpace(os.Getenv("NAUKRI_EMAIL")),
		Password: strings.TrimSpace(os.Getenv("NAUKRI_PASSWORD")),
	}
	if creds.Email == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("NAUKRI_EMAIL and NAUKRI_PASSWORD must be set (environment or .env)")
	}
	return creds, nil
}

// Init writes a default config.json if it doesn't already exist and returns
// the paths it created.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
