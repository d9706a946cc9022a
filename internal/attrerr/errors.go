// Package attrerr defines the sentinel error kinds used throughout the
// attribution engine, matching the kinds named in the engine's error
// handling design: IOFailure, CorruptRecord, InvalidConfig, and
// TimeoutElapsed. UnknownAgent has no sentinel here, since an unrecognized
// agent label is accepted verbatim (see agentkind.Parse). Callers wrap these with fmt.Errorf("...: %w", ...) the
// same way the rest of the codebase wraps stdlib errors; there is no
// dedicated error-code package in the ecosystem this engine draws from, so
// plain errors.New sentinels are the grounded choice.
package attrerr

import "errors"

// ErrIOFailure indicates a read or write to the sharded log failed.
var ErrIOFailure = errors.New("io failure")

// ErrCorruptRecord indicates a shard line failed to parse. Never propagated
// to a caller; it is only ever logged and counted.
var ErrCorruptRecord = errors.New("corrupt record")

// ErrInvalidConfig indicates a configuration value violates an invariant
// (threshold ordering, negative retention, out-of-range tolerance).
var ErrInvalidConfig = errors.New("invalid config")

// ErrTimeoutElapsed indicates an attribution query's deadline was reached
// before the pipeline finished; the caller still receives a partial verdict.
var ErrTimeoutElapsed = errors.New("query deadline elapsed")
