// Package logger provides structured logging for the vidmine project.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Thread-safe operations
//   - Configurable output and formatting
//
// Usage:
//
//	// Get a component logger
//	log := logger.WithComponent(logger.ComponentPage)
//
//	// Log messages with different levels
//	log.Info("Fetched watch page", map[string]interface{}{
//		"url":  "https://www.youtube.com/watch?v=...",
//		"size": 1024,
//	})
//
//	// Configure global logger
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: Main application logs
//   - ComponentFetch: HTTP fetch logs
//   - ComponentSig: Signature descrambling logs
//   - ComponentJS: JS interpreter logs
//   - ComponentHLS: HLS manifest parsing logs
//   - ComponentPage: Watch-page mining logs
//   - ComponentFormat: Format reconciliation logs
package logger
