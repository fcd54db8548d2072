package job

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/silentcut/silentcut-api/internal/pipeline"
	"github.com/silentcut/silentcut-api/internal/storage"
)

// ErrJobFinished is returned when cancelling a job that already terminated.
var ErrJobFinished = errors.New("job already finished")

// ErrInvalidInput is returned when a job carries neither a source path nor
// decodable source bytes.
var ErrInvalidInput = errors.New("invalid job input")

// TrimInput contains the parameters for a silence-removal job. Exactly one
// of InputPath and InputBase64 must be set.
type TrimInput struct {
	// InputPath is the path to the source video on the server.
	InputPath string
	// InputBase64 is the base64-encoded source video; it is staged in the
	// storage workspace before the run.
	InputBase64 string
	// OutputPath is the path the trimmed video is written to. Empty means
	// the input path with a "_trimmed" suffix.
	OutputPath string
	// Options are the pipeline options for the run.
	Options pipeline.Options
	// PushToS3 indicates whether to upload the trimmed output to S3.
	PushToS3 bool
}

// PipelineFactory builds a fresh pipeline for a single run. Each job gets
// its own pipeline so cancellation flags never leak between runs.
type PipelineFactory func(opts ...pipeline.Option) *pipeline.Pipeline

// TrimService orchestrates silence-removal jobs: it persists the job
// aggregate, drives the pipeline, bridges progress into job updates, and
// exposes cooperative cancellation by job ID.
type TrimService struct {
	repo        Repository
	newPipeline PipelineFactory
	store       storage.Storage
	logger      *slog.Logger

	mu     sync.Mutex
	active map[string]*pipeline.Pipeline
}

// NewTrimService creates a new TrimService.
func NewTrimService(repo Repository, factory PipelineFactory, store storage.Storage, logger *slog.Logger) *TrimService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrimService{
		repo:        repo,
		newPipeline: factory,
		store:       store,
		logger:      logger,
		active:      make(map[string]*pipeline.Pipeline),
	}
}

// CreateJob creates a new job in IN_QUEUE status and persists it. A source
// sent as raw bytes is staged in the storage workspace first; an empty
// output path is resolved against the input path.
func (s *TrimService) CreateJob(ctx context.Context, input TrimInput) (*Job, error) {
	j := New()
	j.Options = input.Options
	j.PushToS3 = input.PushToS3

	switch {
	case input.InputBase64 != "":
		path, err := s.stageInput(ctx, j.ID, input.InputBase64)
		if err != nil {
			return nil, err
		}
		j.InputPath = path
		j.StagedInput = true
	case input.InputPath != "":
		j.InputPath = input.InputPath
	default:
		return nil, fmt.Errorf("%w: no source path or bytes", ErrInvalidInput)
	}

	j.OutputPath = input.OutputPath
	if j.OutputPath == "" {
		j.OutputPath = defaultOutputPath(j.InputPath)
	}

	s.logger.Info("creating trim job",
		slog.String("job_id", j.ID),
		slog.String("input", j.InputPath),
		slog.String("output", j.OutputPath),
		slog.Bool("staged", j.StagedInput),
		slog.Float64("noise_floor_db", input.Options.NoiseFloorDB),
		slog.Float64("min_silence_sec", input.Options.MinSilenceSec),
		slog.String("preset", input.Options.QualityPreset),
	)

	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return j, nil
}

// GetJob retrieves a job by ID.
func (s *TrimService) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.FindByID(ctx, jobID)
}

// ListJobs returns all jobs.
func (s *TrimService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// Busy reports whether a trim run is currently active. The encoder is a
// whole-machine resource, so only one run executes at a time; queued jobs
// wait their turn.
func (s *TrimService) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// ProcessExistingJob runs the pipeline for a previously created job. It is
// intended to run on a background goroutine; the job record tracks progress
// and the terminal outcome. When another job is already running the job is
// failed and pipeline.ErrRunActive returned, so no job lingers in the queue
// with nothing left to pick it up.
func (s *TrimService) ProcessExistingJob(ctx context.Context, jobID string) (*Job, error) {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	p := s.newPipeline(
		pipeline.WithProgressFunc(func(value float64, message string) {
			j.UpdateProgress(int(value), message)
			if err := s.repo.Save(ctx, j); err != nil {
				s.logger.Warn("failed to persist progress",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()),
				)
			}
		}),
		pipeline.WithLogFunc(func(level, message string) {
			s.logger.Info("pipeline",
				slog.String("job_id", jobID),
				slog.String("level", level),
				slog.String("message", message),
			)
		}),
	)

	if !s.tryRegister(jobID, p) {
		_ = j.Fail("a trim run is already active")
		_ = s.repo.Save(ctx, j)
		s.releaseStaged(ctx, j)
		return j, pipeline.ErrRunActive
	}
	defer s.unregister(jobID)

	if err := j.Start(); err != nil {
		return nil, fmt.Errorf("start job %s: %w", jobID, err)
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, err
	}

	res, err := p.Process(ctx, j.InputPath, j.OutputPath, j.Options)
	if err != nil {
		_ = j.Fail(err.Error())
		_ = s.repo.Save(ctx, j)
		s.releaseStaged(ctx, j)
		return j, err
	}

	j.SetResult(res)

	switch {
	case res.Cancelled:
		_ = j.Cancel()
	case res.Success:
		s.maybeUpload(ctx, j)
		_ = j.Complete()
		s.logger.Info("trim completed",
			slog.String("job_id", jobID),
			slog.Float64("removed_sec", res.RemovedDuration),
			slog.Float64("removed_pct", removedPercent(res)),
			slog.Int("segments_removed", res.SegmentsRemoved),
		)
	default:
		_ = j.Fail(res.ErrorMessage)
	}

	if err := s.repo.Save(ctx, j); err != nil {
		return j, err
	}
	s.releaseStaged(ctx, j)
	return j, nil
}

// Cancel requests cooperative cancellation of a job. A queued job is
// cancelled immediately; a running job is flagged and stops at the
// pipeline's next checkpoint. Cancelling a finished job returns
// ErrJobFinished.
func (s *TrimService) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	p, running := s.active[jobID]
	s.mu.Unlock()

	if running {
		p.Cancel()
		return nil
	}

	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if j.IsTerminal() {
		return ErrJobFinished
	}
	if err := j.Cancel(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}
	s.releaseStaged(ctx, j)
	return nil
}

func (s *TrimService) tryRegister(jobID string, p *pipeline.Pipeline) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.active) > 0 {
		return false
	}
	s.active[jobID] = p
	return true
}

func (s *TrimService) unregister(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, jobID)
}

// stageInput decodes an uploaded source and writes it into the storage
// workspace, returning the staged path.
func (s *TrimService) stageInput(ctx context.Context, jobID, inputBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(inputBase64)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	path, err := s.store.SaveTemp(ctx, jobID+"-input.mp4", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("stage input: %w", err)
	}
	return path, nil
}

// releaseStaged removes workspace files a terminal job no longer needs:
// the staged input always, and the staged output once it has been
// delivered to S3. Outputs that are the deliverable stay in place.
func (s *TrimService) releaseStaged(ctx context.Context, j *Job) {
	if !j.StagedInput {
		return
	}

	paths := []string{j.InputPath}
	if j.ResultURL != "" {
		paths = append(paths, j.OutputPath)
	}
	if err := s.store.CleanupTemp(ctx, paths); err != nil {
		s.logger.Warn("workspace cleanup failed",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}

// maybeUpload pushes the trimmed output to S3 when the job asked for it.
// Upload failure does not fail the job: the local output exists and the
// error is recorded in the log.
func (s *TrimService) maybeUpload(ctx context.Context, j *Job) {
	if !j.PushToS3 || s.store == nil {
		return
	}

	f, err := s.store.LoadTemp(ctx, j.OutputPath)
	if err != nil {
		s.logger.Error("failed to open output for upload",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer func() { _ = f.Close() }()

	key := j.ID + "/" + filepath.Base(j.OutputPath)
	url, err := s.store.UploadToS3(ctx, key, f)
	if err != nil {
		s.logger.Error("failed to upload output",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	j.SetResultURL(url)
}

// defaultOutputPath derives the output path from the input path by adding
// a "_trimmed" suffix before the extension.
func defaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	return base + "_trimmed" + ext
}

func removedPercent(res pipeline.Result) float64 {
	if res.InputDuration == 0 {
		return 0
	}
	return res.RemovedDuration / res.InputDuration * 100
}
