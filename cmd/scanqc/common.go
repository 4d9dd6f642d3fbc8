package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/protoqa/scanqc/core/projectconfig"
	"github.com/protoqa/scanqc/core/session"
)

// newLogger builds the CLI logger on stderr; stdout stays reserved for
// command output.
func newLogger(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadGroupedTable reads a session table and assigns acquisition labels and
// run numbers using the project config's grouping overrides.
func loadGroupedTable(path string, configuration projectconfig.Config, logger *zap.Logger) (*session.Table, error) {
	table, err := session.LoadTable(path)
	if err != nil {
		return nil, err
	}
	grouper := session.NewGrouper(session.GrouperConfig{
		SettingsFields: configuration.Grouping.SettingsFields,
		ProtocolFields: configuration.Grouping.ProtocolFields,
		RunGroupFields: configuration.Grouping.RunGroupFields,
	}, logger)
	grouper.Assign(table)
	return table, nil
}
