// Package session serializes access to traversal sessions. The Manager
// hands out per-session locks with reference counting so idle sessions
// leave no entries behind, and can layer a distributed lock on top for
// multi-replica deployments.
package session
