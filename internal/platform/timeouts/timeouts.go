// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between boundaries and makes the
// durations discoverable.
package timeouts

import "time"

// EmitRequest caps the time allowed for a single progress-event POST.
const EmitRequest = 2 * time.Second

// JournalWrite caps the time allowed for a background exposure journal write.
const JournalWrite = 2 * time.Second

// SessionSeed caps the wait when pre-loading a session's posted ids from the
// journal at a session boundary.
const SessionSeed = time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
