package pipeline

// Result is the outcome record of a pipeline run, produced exactly once.
// Either Success is true and ErrorMessage is empty, or Success is false with
// a human-readable reason and zeroed timing fields.
type Result struct {
	// Success reports whether the run completed.
	Success bool `json:"success"`
	// InputDuration is the source duration in seconds.
	InputDuration float64 `json:"input_duration"`
	// OutputDuration is the retained duration in seconds.
	OutputDuration float64 `json:"output_duration"`
	// RemovedDuration is InputDuration minus OutputDuration.
	RemovedDuration float64 `json:"removed_duration"`
	// SegmentsRemoved is the number of internal gaps closed between kept
	// segments.
	SegmentsRemoved int `json:"segments_removed"`
	// ErrorMessage carries the failure reason, empty on success.
	ErrorMessage string `json:"error_message,omitempty"`
	// Cancelled is true when the run stopped at a cancellation checkpoint.
	Cancelled bool `json:"cancelled,omitempty"`
}

func successResult(inputDur, keptDur float64, segmentsRemoved int) Result {
	return Result{
		Success:         true,
		InputDuration:   inputDur,
		OutputDuration:  keptDur,
		RemovedDuration: inputDur - keptDur,
		SegmentsRemoved: segmentsRemoved,
	}
}

func failureResult(msg string) Result {
	return Result{ErrorMessage: msg}
}

func cancelledResult() Result {
	return Result{ErrorMessage: "cancelled", Cancelled: true}
}
