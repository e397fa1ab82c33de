// Package errors provides the classified error primitives used across twm.
//
// A ClassifiedError carries a category (config, scan, translate, compile, ...),
// a severity and a retry hint, plus structured context. Errors are built with
// the fluent ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryScan, "walk input tree").
//		WithContext("root", root).
//		Fatal().
//		Build()
//
// The CLI adapter turns classified errors into exit codes and log records.
package errors
