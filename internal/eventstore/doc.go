// Package eventstore persists the summary of every build cycle to SQLite so
// the history of a long watch session can be inspected afterwards.
package eventstore
