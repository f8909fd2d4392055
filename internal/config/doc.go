// Package config provides 12-factor configuration for the timing tools.
//
// The tools keep their historical command lines, so everything tunable
// beyond the flags comes from MISCTOOLS_* environment variables with
// sensible defaults.
//
// Environment Variables:
//   - MISCTOOLS_POLL_INTERVAL: regular-file control channel poll period
//   - MISCTOOLS_CTRL_BUF: control channel read buffer size
//   - MISCTOOLS_RETRY_SLEEP: streamed channel backoff after writer close
//   - MISCTOOLS_CHUNK_SIZE: bulk copy unit in the gated loops
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	opts.PollInterval = cfg.PollInterval
package config
