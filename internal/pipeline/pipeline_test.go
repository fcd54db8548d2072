package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/silentcut/silentcut-api/internal/encode"
	"github.com/silentcut/silentcut-api/internal/media"
	"github.com/silentcut/silentcut-api/internal/silence"
)

type mockProber struct{ mock.Mock }

func (m *mockProber) Probe(ctx context.Context, path string) (media.VideoInfo, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(media.VideoInfo), args.Error(1)
}

type mockDetector struct{ mock.Mock }

func (m *mockDetector) Detect(ctx context.Context, inputPath string, noiseFloorDB, minSilenceSec float64) ([]float64, error) {
	args := m.Called(ctx, inputPath, noiseFloorDB, minSilenceSec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

type mockEncoder struct{ mock.Mock }

func (m *mockEncoder) Encode(ctx context.Context, inputPath, outputPath string, filters silence.FilterPair, tier encode.Tier) error {
	args := m.Called(ctx, inputPath, outputPath, filters, tier)
	return args.Error(0)
}

type mockCopier struct{ mock.Mock }

func (m *mockCopier) Copy(src, dst string) error {
	args := m.Called(src, dst)
	return args.Error(0)
}

type mockDeps struct{ mock.Mock }

func (m *mockDeps) Check(ctx context.Context) media.Dependencies {
	args := m.Called(ctx)
	return args.Get(0).(media.Dependencies)
}

type fixture struct {
	prober   *mockProber
	detector *mockDetector
	encoder  *mockEncoder
	copier   *mockCopier
	deps     *mockDeps
}

func newPipeline(t *testing.T, opts ...Option) (*Pipeline, *fixture) {
	t.Helper()
	f := &fixture{
		prober:   &mockProber{},
		detector: &mockDetector{},
		encoder:  &mockEncoder{},
		copier:   &mockCopier{},
		deps:     &mockDeps{},
	}
	p := New(f.prober, f.detector, f.encoder, f.copier, f.deps, nil, opts...)
	return p, f
}

func TestProcess_SuccessWithSilence(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 100}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).
		Return([]float64{10, 12, 50, 55}, nil)
	f.deps.On("Check", ctx).Return(media.Dependencies{FFmpeg: true, HardwareEncoder: false})
	f.encoder.On("Encode", ctx, "in.mp4", "out.mp4", mock.Anything,
		encode.Tier{UseHardware: false, Preset: "medium"}).Return(nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 100.0, res.InputDuration)
	assert.InDelta(t, 93.0, res.OutputDuration, 1e-9)
	assert.InDelta(t, 7.0, res.RemovedDuration, 1e-9)
	assert.Equal(t, 2, res.SegmentsRemoved)
	assert.Empty(t, res.ErrorMessage)
	assert.Equal(t, StateCompleted, p.State())
	f.copier.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything)
}

func TestProcess_HardwareTierWhenPreferredAndAvailable(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 60}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).Return([]float64{5, 10}, nil)
	f.deps.On("Check", ctx).Return(media.Dependencies{FFmpeg: true, HardwareEncoder: true})
	f.encoder.On("Encode", ctx, "in.mp4", "out.mp4", mock.Anything,
		encode.Tier{UseHardware: true, Preset: "medium"}).Return(nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.Success)
	f.encoder.AssertExpectations(t)
}

func TestProcess_SoftwareFallbackWhenHardwareUnavailable(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 60}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).Return([]float64{5, 10}, nil)
	f.deps.On("Check", ctx).Return(media.Dependencies{FFmpeg: true, HardwareEncoder: false})
	f.encoder.On("Encode", ctx, "in.mp4", "out.mp4", mock.Anything,
		encode.Tier{UseHardware: false, Preset: "medium"}).Return(nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.Success)
	f.encoder.AssertExpectations(t)
}

func TestProcess_NoSilenceCopiesUnchanged(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 30}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).Return([]float64{}, nil)
	f.copier.On("Copy", "in.mp4", "out.mp4").Return(nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 30.0, res.InputDuration)
	assert.Equal(t, 30.0, res.OutputDuration)
	assert.Zero(t, res.RemovedDuration)
	assert.Zero(t, res.SegmentsRemoved)
	f.copier.AssertExpectations(t)
	f.encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_EntirelySilentFails(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 100}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).Return([]float64{0, 100}, nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "entirely silent")
	assert.Zero(t, res.InputDuration)
	assert.Equal(t, StateFailed, p.State())
	f.encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_DurationUnknownFails(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{}, nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "duration unknown", res.ErrorMessage)
	f.detector.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_CancelledBeforeDetection(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	// The flag is reset at run start; set it from the probe so it is
	// observed at the pre-detection checkpoint with zero progress made.
	f.prober.On("Probe", ctx, "in.mp4").
		Run(func(mock.Arguments) { p.Cancel() }).
		Return(media.VideoInfo{Duration: 50}, nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.Cancelled)
	assert.Equal(t, "cancelled", res.ErrorMessage)
	assert.Zero(t, res.InputDuration)
	assert.Zero(t, res.OutputDuration)
	assert.Equal(t, StateCancelled, p.State())
	f.detector.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_CancelledAfterDetection(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 50}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).
		Run(func(mock.Arguments) { p.Cancel() }).
		Return([]float64{5, 10}, nil)

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	f.encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.copier.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything)
}

func TestProcess_EncodeFailureSurfacesTruncatedStderr(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	longStderr := strings.Repeat("e", 500) // already truncated by the encoder
	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 100}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).Return([]float64{10, 12}, nil)
	f.deps.On("Check", ctx).Return(media.Dependencies{FFmpeg: true})
	f.encoder.On("Encode", ctx, "in.mp4", "out.mp4", mock.Anything, mock.Anything).
		Return(&encode.EncodeError{ExitCode: 1, Stderr: longStderr})

	res, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Len(t, res.ErrorMessage, 500)
	assert.Zero(t, res.InputDuration)
	assert.Equal(t, StateFailed, p.State())
}

func TestProcess_SecondRunRejected(t *testing.T) {
	p, f := newPipeline(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	f.prober.On("Probe", ctx, "in.mp4").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(media.VideoInfo{Duration: 10}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).Return([]float64{}, nil)
	f.copier.On("Copy", "in.mp4", "out.mp4").Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	}()

	<-started
	_, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	assert.ErrorIs(t, err, ErrRunActive)

	close(release)
	wg.Wait()
}

func TestProcess_CallbackCheckpointsObservable(t *testing.T) {
	var mu sync.Mutex
	var messages []string

	p, f := newPipeline(t, WithProgressFunc(func(_ float64, msg string) {
		mu.Lock()
		messages = append(messages, msg)
		mu.Unlock()
	}))
	ctx := context.Background()

	f.prober.On("Probe", ctx, "in.mp4").Return(media.VideoInfo{Duration: 100}, nil)
	f.detector.On("Detect", ctx, "in.mp4", -35.0, 0.5).Return([]float64{10, 12}, nil)
	f.deps.On("Check", ctx).Return(media.Dependencies{FFmpeg: true})
	f.encoder.On("Encode", ctx, "in.mp4", "out.mp4", mock.Anything, mock.Anything).Return(nil)

	_, err := p.Process(ctx, "in.mp4", "out.mp4", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"starting", "detecting silence", "encoding", "completed"}, messages)
}

func TestValidPreset(t *testing.T) {
	assert.True(t, ValidPreset("medium"))
	assert.True(t, ValidPreset("ultrafast"))
	assert.False(t, ValidPreset("turbo"))
	assert.False(t, ValidPreset(""))
}
