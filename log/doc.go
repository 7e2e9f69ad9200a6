// Package log provides the leveled logging interface used across collabgraph.
//
// Graphs, agents and tool nodes accept a Logger option; when none is given they
// fall back to the package-level default returned by GetDefaultLogger.
//
// Two implementations are provided:
//
//   - DefaultLogger writes through the standard library logger.
//   - GologLogger adapts a github.com/kataras/golog logger.
//
// Example:
//
//	logger := log.NewGologLoggerWithLevel(log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
//
//	level, err := log.ParseLevel(cfg.Log.Level)
//	if err != nil {
//		return err
//	}
//	log.SetLogLevel(level)
package log
