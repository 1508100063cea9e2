// Package moot is a courtroom trial simulation engine built around
// role-played branching dialogues. Participants bound to roles traverse
// a shared directed graph of dialogue nodes by picking among the
// responses available to them; every pick is scored, mutates the
// session's variable map, and lands in an auditable history.
//
// The root package is the high-level entry point: it wires the session
// state machine over pluggable graph, session and decision stores. See
// pkg/domain for the data model and pkg/ports for the store contracts.
package moot
