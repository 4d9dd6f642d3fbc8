package projectconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

const DefaultPath = ".scanqc/config.yaml"

type Config struct {
	Grouping GroupingDefaults `yaml:"grouping"`
	Check    CheckDefaults    `yaml:"check"`
	Output   OutputDefaults   `yaml:"output"`
}

// GroupingDefaults overrides the field sets the grouper partitions sessions
// by. An empty list keeps the built-in defaults.
type GroupingDefaults struct {
	SettingsFields []string `yaml:"settings_fields"`
	ProtocolFields []string `yaml:"protocol_fields"`
	RunGroupFields []string `yaml:"run_group_fields"`
}

type CheckDefaults struct {
	Schema      string `yaml:"schema"`
	Strict      bool   `yaml:"strict"`
	Concurrency int    `yaml:"concurrency"`
}

type OutputDefaults struct {
	ReportPath  string `yaml:"report_path"`
	HistoryPath string `yaml:"history_path"`
}

func Load(path string, allowMissing bool) (Config, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Config{}, fmt.Errorf("project config path is required")
	}

	// #nosec G304 -- project config path is explicit local user input.
	content, err := os.ReadFile(trimmedPath)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read project config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return Config{}, nil
	}

	var configuration Config
	if err := yaml.Unmarshal(content, &configuration); err != nil {
		return Config{}, fmt.Errorf("parse project config: %w", err)
	}
	configuration.normalize()
	return configuration, nil
}

func (configuration *Config) normalize() {
	configuration.Grouping.SettingsFields = trimAll(configuration.Grouping.SettingsFields)
	configuration.Grouping.ProtocolFields = trimAll(configuration.Grouping.ProtocolFields)
	configuration.Grouping.RunGroupFields = trimAll(configuration.Grouping.RunGroupFields)
	configuration.Check.Schema = strings.TrimSpace(configuration.Check.Schema)
	if configuration.Check.Concurrency < 0 {
		configuration.Check.Concurrency = 0
	}
	configuration.Output.ReportPath = strings.TrimSpace(configuration.Output.ReportPath)
	configuration.Output.HistoryPath = strings.TrimSpace(configuration.Output.HistoryPath)
}

func trimAll(values []string) []string {
	var trimmed []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			trimmed = append(trimmed, value)
		}
	}
	return trimmed
}
