package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Paths  PathsConfig  `yaml:"paths"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type PathsConfig struct {
	SubmissionsDir string `yaml:"submissions_dir"` // folder of PDF submissions
	GradesCSV      string `yaml:"grades_csv"`      // persisted grading table
	GradebookXLSX  string `yaml:"gradebook_xlsx"`  // export destination
}

// Load reads the yaml config (path from CONFIG_PATH or probed defaults),
// fills defaults and applies environment overrides. A missing config file is
// fine for a desktop install; the defaults alone are a working setup.
func Load() (*Config, error) {
	var cfg Config

	configPath := getConfigPath()
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	setDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	possiblePaths := []string{
		"config/config.yaml",
		"./config.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "config.yaml"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8470"
	}

	if cfg.Paths.SubmissionsDir == "" {
		cfg.Paths.SubmissionsDir = "submissions"
	}

	if cfg.Paths.GradesCSV == "" {
		cfg.Paths.GradesCSV = "manual_grades.csv"
	}

	if cfg.Paths.GradebookXLSX == "" {
		cfg.Paths.GradebookXLSX = "gradebook_export.xlsx"
	}
}

func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("GRADER_ADDRESS"); val != "" {
		cfg.Server.Address = val
	}
	if val := os.Getenv("GRADER_SUBMISSIONS_DIR"); val != "" {
		cfg.Paths.SubmissionsDir = val
	}
	if val := os.Getenv("GRADER_GRADES_CSV"); val != "" {
		cfg.Paths.GradesCSV = val
	}
	if val := os.Getenv("GRADER_GRADEBOOK_XLSX"); val != "" {
		cfg.Paths.GradebookXLSX = val
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server address must be set")
	}

	if cfg.Paths.GradesCSV == "" || cfg.Paths.GradebookXLSX == "" {
		return fmt.Errorf("grades and gradebook paths must be set")
	}

	return nil
}
