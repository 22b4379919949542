// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between layers and makes the
// durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SnapshotWrite caps a single best-effort snapshot persist. A slow disk must
// not stall the learner's click.
const SnapshotWrite = 2 * time.Second

// SnapshotRead caps the startup rehydration read.
const SnapshotRead = 5 * time.Second
