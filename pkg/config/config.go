package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Amr-9/rrt/pkg/models"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no file is given.
const DefaultFileName = "rest-test.yaml"

// YAMLTest represents a single test case in the YAML file.
type YAMLTest struct {
	It              string            `yaml:"it,omitempty"`
	Description     string            `yaml:"description,omitempty"` // Alias for it
	Route           string            `yaml:"route"`
	Method          string            `yaml:"method"`
	Status          int               `yaml:"status"`
	TimeBoundaries  []int64           `yaml:"time_boundaries,omitempty,flow"`
	Verbose         *bool             `yaml:"verbose,omitempty"`
	AutoDescription *bool             `yaml:"auto_description,omitempty"`
	JSONBody        interface{}       `yaml:"json_body,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	Capture         map[string]string `yaml:"capture,omitempty"`
	BearerToken     string            `yaml:"bearer_token,omitempty"`
	Critical        bool              `yaml:"critical,omitempty"`
}

// YAMLConfig represents the structure of the YAML configuration file.
type YAMLConfig struct {
	APIAddress     string            `yaml:"api_address"`
	Verbose        bool              `yaml:"verbose,omitempty"`
	ToFile         string            `yaml:"to_file,omitempty"`
	TimeBoundaries []int64           `yaml:"time_boundaries,omitempty,flow"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Insecure       bool              `yaml:"insecure,omitempty"`
	HTTP2          *bool             `yaml:"http2,omitempty"`
	RateLimit      int               `yaml:"rate_limit,omitempty"`
	Data           []struct {
		Name string `yaml:"name"`
		Path string `yaml:"path"`
	} `yaml:"data,omitempty"`
	Tests []YAMLTest `yaml:"tests"`
}

// LoadConfig reads a YAML file, converts it into a models.Config and validates it.
// All problems found are reported together.
func LoadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse converts raw YAML into a validated models.Config.
func Parse(data []byte) (*models.Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var yamlCfg YAMLConfig
	if err := root.Decode(&yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	result := &ValidationResult{}
	checkUnknownKeys(&root, result)

	cfg := convert(&yamlCfg, result)
	validate(cfg, result)

	if result.HasErrors() {
		return nil, fmt.Errorf("%s", result.FormatErrors())
	}
	return cfg, nil
}

func convert(yamlCfg *YAMLConfig, result *ValidationResult) *models.Config {
	cfg := &models.Config{
		Global: models.GlobalConfig{
			APIAddress:     yamlCfg.APIAddress,
			Verbose:        yamlCfg.Verbose,
			ToFile:         yamlCfg.ToFile,
			TimeBoundaries: models.DefaultTimeBoundaries,
			Headers:        yamlCfg.Headers,
			Insecure:       yamlCfg.Insecure,
			HTTP2:          true,
			RateLimit:      yamlCfg.RateLimit,
		},
	}

	if yamlCfg.HTTP2 != nil {
		cfg.Global.HTTP2 = *yamlCfg.HTTP2
	}

	if len(yamlCfg.TimeBoundaries) > 0 {
		if tb, ok := toBoundaries(yamlCfg.TimeBoundaries, "time_boundaries", result); ok {
			cfg.Global.TimeBoundaries = tb
		}
	}

	for _, d := range yamlCfg.Data {
		cfg.Global.Data = append(cfg.Global.Data, models.DataSource{
			Name: d.Name,
			Path: d.Path,
		})
	}

	for i, t := range yamlCfg.Tests {
		description := t.It
		if description == "" {
			description = t.Description
		}

		tc := models.TestCase{
			Description:     description,
			Route:           t.Route,
			Method:          t.Method,
			ExpectedStatus:  t.Status,
			Verbose:         t.Verbose,
			AutoDescription: t.AutoDescription,
			JSONBody:        t.JSONBody,
			Headers:         t.Headers,
			Capture:         t.Capture,
			BearerToken:     t.BearerToken,
			Critical:        t.Critical,
		}

		if len(t.TimeBoundaries) > 0 {
			field := fmt.Sprintf("tests[%d].time_boundaries", i)
			if tb, ok := toBoundaries(t.TimeBoundaries, field, result); ok {
				tc.TimeBoundaries = &tb
			}
		}

		cfg.Tests = append(cfg.Tests, tc)
	}

	return cfg
}

func toBoundaries(values []int64, field string, result *ValidationResult) (models.TimeBoundaries, bool) {
	var tb models.TimeBoundaries
	if len(values) != len(tb) {
		result.Add(ValidationError{
			Field:    field,
			Value:    fmt.Sprintf("%v", values),
			Message:  fmt.Sprintf("expected exactly 3 values, got %d", len(values)),
			Expected: "[fast_ceiling, slow_ceiling, timeout] in milliseconds",
			Hint:     GetHint("time_boundaries"),
		})
		return tb, false
	}
	copy(tb[:], values)
	return tb, true
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, cfg *models.Config) error {
	var yamlCfg YAMLConfig
	yamlCfg.APIAddress = cfg.Global.APIAddress
	yamlCfg.Verbose = cfg.Global.Verbose
	yamlCfg.ToFile = cfg.Global.ToFile
	yamlCfg.TimeBoundaries = cfg.Global.TimeBoundaries[:]
	yamlCfg.Headers = cfg.Global.Headers
	yamlCfg.Insecure = cfg.Global.Insecure
	yamlCfg.RateLimit = cfg.Global.RateLimit
	if !cfg.Global.HTTP2 {
		off := false
		yamlCfg.HTTP2 = &off
	}
	for _, d := range cfg.Global.Data {
		yamlCfg.Data = append(yamlCfg.Data, struct {
			Name string `yaml:"name"`
			Path string `yaml:"path"`
		}{Name: d.Name, Path: d.Path})
	}

	for _, tc := range cfg.Tests {
		t := YAMLTest{
			It:              tc.Description,
			Route:           tc.Route,
			Method:          tc.Method,
			Status:          tc.ExpectedStatus,
			Verbose:         tc.Verbose,
			AutoDescription: tc.AutoDescription,
			JSONBody:        tc.JSONBody,
			Headers:         tc.Headers,
			Capture:         tc.Capture,
			BearerToken:     tc.BearerToken,
			Critical:        tc.Critical,
		}
		if tc.TimeBoundaries != nil {
			t.TimeBoundaries = tc.TimeBoundaries[:]
		}
		yamlCfg.Tests = append(yamlCfg.Tests, t)
	}

	data, err := yaml.Marshal(yamlCfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Append usage instructions
	comment := fmt.Sprintf("\n# Run this configuration:\n# rrt -f %s\n", filepath.Base(path))
	data = append(data, []byte(comment)...)

	return os.WriteFile(path, data, 0644)
}

// Locate returns the config path to use: the explicit one if given,
// otherwise DefaultFileName inside the working directory.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return filepath.Join(cwd, DefaultFileName), nil
}
