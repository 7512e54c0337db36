// Package progress provides the stage progress callback shared by the
// clean and incidents workflows.
package progress

// Func receives a stage label with processed/total counts. Stage names are
// workflow-specific and meant for user-facing output.
type Func func(stage string, processed, total int)

// EmitStage calls cb with a stage label and clamped processed/total values.
// It is a no-op when cb is nil or total is non-positive.
func EmitStage(cb Func, stage string, processed, total int) {
	if cb == nil || total <= 0 {
		return
	}

	processed = max(0, min(processed, total))

	cb(stage, processed, total)
}
