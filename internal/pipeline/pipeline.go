package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/silentcut/silentcut-api/internal/encode"
	"github.com/silentcut/silentcut-api/internal/media"
	"github.com/silentcut/silentcut-api/internal/silence"
)

// ErrRunActive is returned when Process is called while another run is
// already active on the same Pipeline. The core provides no run queue;
// queueing is a caller responsibility.
var ErrRunActive = errors.New("pipeline run already active")

// Collaborator ports. The pipeline is polymorphic over anything that can
// probe metadata, detect silence, encode, copy files, and report tool
// availability, so runs are testable without spawning processes.
type (
	// Prober extracts media metadata; the pipeline consumes only duration.
	Prober interface {
		Probe(ctx context.Context, path string) (media.VideoInfo, error)
	}

	// Detector produces the raw silence timestamp stream for a file.
	Detector interface {
		Detect(ctx context.Context, inputPath string, noiseFloorDB, minSilenceSec float64) ([]float64, error)
	}

	// Encoder performs the filtered re-encode.
	Encoder interface {
		Encode(ctx context.Context, inputPath, outputPath string, filters silence.FilterPair, tier encode.Tier) error
	}

	// Copier copies the input unchanged when there is nothing to cut.
	Copier interface {
		Copy(src, dst string) error
	}

	// DependencyChecker reports tool and hardware-encoder availability.
	// Consulted once per run to pick the encoder tier.
	DependencyChecker interface {
		Check(ctx context.Context) media.Dependencies
	}
)

// ProgressFunc receives progress updates in the 0-100 range with a short
// human-readable message.
type ProgressFunc func(value float64, message string)

// LogFunc receives log lines with a level of DEBUG, INFO, WARNING or ERROR.
type LogFunc func(level, message string)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgressFunc installs a progress callback.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLogFunc installs a log callback.
func WithLogFunc(fn LogFunc) Option {
	return func(p *Pipeline) { p.log = fn }
}

// Pipeline runs the silence-removal sequence for one input/output pair at a
// time. The cancellation flag is the only state shared with the caller: it
// may be set from any goroutine and is observed at two checkpoints (before
// detection, and after detection completes). It is deliberately not checked
// while an external process runs; a launched sub-process always runs to
// completion before the next checkpoint.
type Pipeline struct {
	prober   Prober
	detector Detector
	encoder  Encoder
	copier   Copier
	deps     DependencyChecker
	logger   *slog.Logger

	progress ProgressFunc
	log      LogFunc

	active    atomic.Bool
	cancelled atomic.Bool
	state     atomic.Value // State
}

// New creates a Pipeline with the given collaborators.
func New(prober Prober, detector Detector, encoder Encoder, copier Copier, deps DependencyChecker, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		prober:   prober,
		detector: detector,
		encoder:  encoder,
		copier:   copier,
		deps:     deps,
		logger:   logger,
	}
	p.state.Store(StateIdle)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current run state.
func (p *Pipeline) State() State {
	return p.state.Load().(State)
}

// Cancel requests cooperative cancellation of the active run. It is safe to
// call from any goroutine at any time; the run observes it at the next
// checkpoint.
func (p *Pipeline) Cancel() {
	p.cancelled.Store(true)
}

// Process runs the full pipeline for one input/output pair. It returns
// ErrRunActive if a run is already in flight; every started run produces
// exactly one Result, with failures captured in Result.ErrorMessage rather
// than the error return.
func (p *Pipeline) Process(ctx context.Context, inputPath, outputPath string, opts Options) (Result, error) {
	if !p.active.CompareAndSwap(false, true) {
		return Result{}, ErrRunActive
	}
	defer p.active.Store(false)
	p.cancelled.Store(false)

	res := p.run(ctx, inputPath, outputPath, opts)

	switch {
	case res.Cancelled:
		p.setState(StateCancelled)
		p.report(100, "cancelled")
		p.logf("WARNING", "run cancelled")
	case res.Success:
		p.setState(StateCompleted)
		p.report(100, "completed")
	default:
		p.setState(StateFailed)
		p.report(100, "failed")
		p.logf("ERROR", res.ErrorMessage)
	}

	return res, nil
}

func (p *Pipeline) run(ctx context.Context, inputPath, outputPath string, opts Options) Result {
	p.setState(StateIdle)
	p.report(0, "starting")
	p.logf("INFO", "processing "+inputPath)

	info, err := p.prober.Probe(ctx, inputPath)
	if err != nil || info.Duration == 0 {
		if err != nil {
			p.logger.Warn("metadata probe failed",
				slog.String("input", inputPath),
				slog.String("error", err.Error()),
			)
		}
		return failureResult("duration unknown")
	}

	// Checkpoint: before detection. A flag set here means zero progress.
	if p.cancelled.Load() {
		return cancelledResult()
	}

	p.setState(StateDetecting)
	p.report(10, "detecting silence")
	events, err := p.detector.Detect(ctx, inputPath, opts.NoiseFloorDB, opts.MinSilenceSec)
	if err != nil {
		return failureResult("silence detection failed: " + err.Error())
	}

	// Checkpoint: detection finished, computing not yet started.
	if p.cancelled.Load() {
		return cancelledResult()
	}

	p.setState(StateComputing)

	if len(events) == 0 {
		// Nothing detected, nothing to cut: pass the input through without
		// a re-encode.
		p.logf("INFO", "no silence detected, copying input unchanged")
		if err := p.copier.Copy(inputPath, outputPath); err != nil {
			return failureResult("copy failed: " + err.Error())
		}
		return successResult(info.Duration, info.Duration, 0)
	}

	segs := silence.SegmentsFromSilence(events, info.Duration)
	if len(segs) == 0 {
		return failureResult("nothing to keep: input is entirely silent")
	}

	kept := silence.TotalLength(segs)
	filters := silence.CompileFilters(segs)

	deps := p.deps.Check(ctx)
	tier := encode.Tier{
		UseHardware: opts.PreferHardware && deps.HardwareEncoder,
		Preset:      opts.QualityPreset,
	}

	p.setState(StateEncoding)
	p.report(50, "encoding")
	p.logf("INFO", "encoding with "+tierName(tier))

	if err := p.encoder.Encode(ctx, inputPath, outputPath, filters, tier); err != nil {
		var encErr *encode.EncodeError
		if errors.As(err, &encErr) {
			return failureResult(encErr.Stderr)
		}
		return failureResult(err.Error())
	}

	// Counts internal gaps closed, not silence intervals consumed: a run
	// keeping N segments removed N-1 gaps between them. Historical contract,
	// kept as-is because it is observable in the result.
	segmentsRemoved := len(segs) - 1
	if segmentsRemoved < 0 {
		segmentsRemoved = 0
	}

	return successResult(info.Duration, kept, segmentsRemoved)
}

func (p *Pipeline) setState(s State) {
	p.state.Store(s)
}

func (p *Pipeline) report(value float64, message string) {
	if p.progress != nil {
		p.progress(value, message)
	}
}

func (p *Pipeline) logf(level, message string) {
	if p.log != nil {
		p.log(level, message)
	}
}

func tierName(t encode.Tier) string {
	if t.UseHardware {
		return "h264_nvenc (" + t.Preset + ")"
	}
	return "libx264 (" + t.Preset + ")"
}
