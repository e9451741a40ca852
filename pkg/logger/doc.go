// Package logger provides structured logging for the crawler.
//
// It wraps zerolog behind a small Logger interface so extractors and the
// dispatcher can be handed a test double. Console output goes to stderr;
// when a file is configured, entries are also written there through a
// size-rotated lumberjack writer.
//
//	cfg := &config.LoggingConfig{Level: "debug", File: "/var/log/wallcrawl.log", MaxSize: 10}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//	logger.WithField("source", src).Info("Discovering")
//
// Use NewTestLogger in tests to capture entries and NewNopLogger to discard them.
package logger
