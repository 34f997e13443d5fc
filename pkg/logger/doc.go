// Package logger wraps zerolog behind a small Logger interface.
//
// The CLI initializes a global logger from the logging section of the
// config; library packages take a Logger explicitly so tests can pass a
// TestLogger or NewNopLogger().
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "collector")
//	log.InfoWithFields("Fetched following", map[string]interface{}{"count": 412})
//
// Console output is colored and goes to stderr. When LOG_FILE is set the
// same events are also appended to that file as JSON lines.
package logger
