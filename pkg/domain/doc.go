// Package domain contains the core types of the Moot dialogue engine:
// the authored dialogue graph (nodes and responses), the per-trial
// traversal session, and the immutable decision audit records.
//
// Types here are pure data. All behavior (condition evaluation,
// consequence application, scoring, lifecycle transitions) lives in
// internal/engine and is exposed through the root moot package.
package domain
