// Package session implements the in-memory conversation store: explicit
// product context and message history per session id, TTL-based eviction,
// and an atomic check-out / commit-or-rollback turn protocol that
// serializes concurrent turns on the same session.
package session
