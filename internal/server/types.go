// Package server provides the HTTP server for the silence-removal API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"github.com/silentcut/silentcut-api/internal/media"
	"github.com/silentcut/silentcut-api/internal/pipeline"
)

// CreateJobRequest is the HTTP request body for creating a new trim job.
// Exactly one of input_path and input_base64 must be set; unset options
// fall back to the configured defaults.
type CreateJobRequest struct {
	// InputPath is the path to the source video on the server.
	InputPath string `json:"input_path" validate:"required_without=InputBase64,excluded_with=InputBase64"`
	// InputBase64 is the base64-encoded source video, staged in the
	// server's workspace before processing.
	InputBase64 string `json:"input_base64" validate:"omitempty,base64"`
	// OutputPath is where the trimmed video is written. Defaults to the
	// input path with a "_trimmed" suffix.
	OutputPath string `json:"output_path"`
	// NoiseFloorDB is the silence threshold in dBFS.
	NoiseFloorDB *float64 `json:"noise_floor_db" validate:"omitempty,lt=0"`
	// MinSilenceSec is the minimum silence duration to cut, in seconds.
	MinSilenceSec *float64 `json:"min_silence_sec" validate:"omitempty,gt=0"`
	// PreferHardware selects the hardware encoder when available.
	PreferHardware *bool `json:"prefer_hardware"`
	// QualityPreset is the encoder speed/quality preset.
	QualityPreset string `json:"quality_preset" validate:"omitempty,oneof=ultrafast superfast veryfast faster fast medium slow slower veryslow"`
	// PushToS3 indicates whether to upload the trimmed video to S3.
	PushToS3 bool `json:"push_to_s3"`
}

// CreateJobResponse is the HTTP response after creating a job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
	// OutputPath is the resolved output path for the trimmed video.
	OutputPath string `json:"output_path"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// Message is a short description of the current stage.
	Message string `json:"message,omitempty"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// OutputPath is where the trimmed video was written (if completed).
	OutputPath string `json:"output_path,omitempty"`
	// ResultURL is the S3 URL of the trimmed video (if push_to_s3=true and completed).
	ResultURL string `json:"result_url,omitempty"`
	// Result is the trim outcome report (present once the job finished).
	Result *pipeline.Result `json:"result,omitempty"`
}

// ListJobsResponse is the HTTP response for listing jobs.
type ListJobsResponse struct {
	// Jobs is the list of known jobs.
	Jobs []JobResponse `json:"jobs"`
}

// CancelJobResponse is the HTTP response after requesting cancellation.
type CancelJobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the job status after the cancel request.
	Status string `json:"status"`
}

// SystemResponse is the HTTP response for the system report endpoint.
type SystemResponse struct {
	// Dependencies reports tool and hardware-encoder availability.
	Dependencies media.Dependencies `json:"dependencies"`
	// Defaults are the trim options applied when a request leaves them unset.
	Defaults pipeline.Options `json:"defaults"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
