// Package logging builds the slog loggers used across the CLI.
//
// Two formats are supported: a console handler that renders
// "ts LEVEL component: msg key=value" lines, and a JSON handler for log
// files or machine consumption. NewFromConfig wires the configured level
// and format and tees output to the log directory.
package logging
