// Package metrics provides the observability hooks for twm build cycles.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	type Runner struct {
//	    recorder metrics.Recorder
//	}
//
//	r := &Runner{recorder: metrics.NoopRecorder{}}
//
// When metrics.listen is configured the CLI swaps in a PrometheusRecorder
// registered on a private registry and serves it with HTTPHandler.
package metrics
