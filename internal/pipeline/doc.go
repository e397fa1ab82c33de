// Package pipeline wires the three build stages (scan, clear, change) into
// typed hooks and provides the default plugins that tap them.
//
// Registration order is the ordering contract: plugins tap their stage when
// applied, and hooks run taps in tap order.
package pipeline
