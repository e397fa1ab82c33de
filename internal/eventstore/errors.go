package eventstore

import (
	"git.home.luguber.info/inful/twm/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.NewError(errors.CategoryStore, "could not open history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.NewError(errors.CategoryStore, "failed to initialize history schema").Build()

	// ErrRecordFailed indicates appending a cycle summary failed.
	ErrRecordFailed = errors.NewError(errors.CategoryStore, "failed to record cycle").Build()

	// ErrQueryFailed indicates reading cycle summaries failed.
	ErrQueryFailed = errors.NewError(errors.CategoryStore, "failed to query cycle history").Build()

	// ErrNotFound indicates no cycle has the requested id.
	ErrNotFound = errors.NewError(errors.CategoryNotFound, "cycle not found").Build()
)
