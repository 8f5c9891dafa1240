// Package slogobs provides an observability.Provider implementation backed by
// Go's standard library log/slog package.
//
// Spans are emitted as debug records at start and end, counters keep their
// running totals in memory, and log calls map onto slog levels (TRACE is
// slog.LevelDebug-4). The main entry point is [New]; output is tuned with
// [WithFormat], [WithLevel], [WithOutput] and [WithLogger], or through the
// DAGGO_LOG_FORMAT and DAGGO_LOG_LEVEL environment variables.
package slogobs
