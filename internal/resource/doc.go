// Package resource holds the shared build state of one twm session: the
// tracked FileResource values, the four-way FileResourceMap partition produced
// by the classifier, the ordered extension rules and the Context that every
// pipeline stage receives by pointer.
package resource
