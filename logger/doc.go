// Package logger provides structured logging for assetgraph using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Pipeline code never logs
// through the package-global logger directly; the controller hands each node
// operation a logger already tagged with the node and phase.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("controller")
//	log.Info("build finished", logger.Fields(logger.FieldTarget, "ios"))
package logger
