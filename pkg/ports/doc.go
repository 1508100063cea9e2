// Package ports declares the persistence and coordination interfaces the
// engine depends on. Adapters under internal/adapters implement them;
// the contract test suites here keep implementations honest.
package ports
