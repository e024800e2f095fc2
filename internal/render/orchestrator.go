package render

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"reelsmith/internal/compose"
	"reelsmith/internal/encoder"
	"reelsmith/internal/gate"
	"reelsmith/internal/media"
	"reelsmith/internal/pkg/errors"
	"reelsmith/internal/pkg/logger"
	"reelsmith/internal/subtitles"
)

// Resolver maps an asset URL to a local file path.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Publisher copies a finished render to an external location and returns
// a public URL for it. Optional; when absent the local /videos path is
// served directly.
type Publisher interface {
	Publish(ctx context.Context, localPath, name string) (string, error)
}

// Recorder is the slice of the metrics surface the orchestrator touches.
type Recorder interface {
	IncRendersStarted()
	IncRendersCompleted()
	IncRenderFailure(code string)
	ObserveRenderDuration(seconds float64)
	SetEncoderBusy(busy bool)
}

// Orchestrator drives one render job through resolution, probing,
// subtitle fitting, program building, and the supervised encode. The
// admission gate is held for the whole pipeline so a rejected request
// never creates partial state.
type Orchestrator struct {
	resolver  Resolver
	prober    media.Prober
	fitter    *subtitles.Fitter
	enc       encoder.Runner
	gate      *gate.Gate
	publisher Publisher
	rec       Recorder

	workDir   string
	outputDir string
	soft      time.Duration
	hard      time.Duration

	log *logger.Logger
}

// Config wires an Orchestrator. Publisher and Recorder are optional.
type Config struct {
	Resolver  Resolver
	Prober    media.Prober
	Fitter    *subtitles.Fitter
	Encoder   encoder.Runner
	Gate      *gate.Gate
	Publisher Publisher
	Recorder  Recorder

	WorkDir     string
	OutputDir   string
	SoftTimeout time.Duration
	HardTimeout time.Duration

	Logger *logger.Logger
}

func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		resolver:  cfg.Resolver,
		prober:    cfg.Prober,
		fitter:    cfg.Fitter,
		enc:       cfg.Encoder,
		gate:      cfg.Gate,
		publisher: cfg.Publisher,
		rec:       cfg.Recorder,
		workDir:   cfg.WorkDir,
		outputDir: cfg.OutputDir,
		soft:      cfg.SoftTimeout,
		hard:      cfg.HardTimeout,
		log:       cfg.Logger.WithComponent("orchestrator"),
	}
}

// Render runs the full pipeline for one job. The job's staged audio file
// and the intermediate subtitle file are always removed before return;
// the output file is removed too unless the render succeeded.
//
// On encoder timeout or failure the returned Result is non-nil and
// carries the progress history for the error response, alongside the
// error itself.
func (o *Orchestrator) Render(ctx context.Context, job *Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		o.removeQuiet(job.AudioPath)
		return nil, err
	}

	log := o.log.WithJobID(job.ID)

	if !o.gate.TryAcquire() {
		o.removeQuiet(job.AudioPath)
		return nil, errors.Busy()
	}
	defer o.gate.Release()

	if o.rec != nil {
		o.rec.IncRendersStarted()
		o.rec.SetEncoderBusy(true)
		defer o.rec.SetEncoderBusy(false)
	}

	start := time.Now()
	res, err := o.run(ctx, job, log)
	elapsed := time.Since(start)

	if err != nil {
		if o.rec != nil {
			o.rec.IncRenderFailure(string(errors.GetCode(err)))
		}
		log.WithError(err).Error("render failed",
			"elapsed_ms", elapsed.Milliseconds())
		return res, err
	}

	res.ElapsedMS = elapsed.Milliseconds()
	if o.rec != nil {
		o.rec.IncRendersCompleted()
		o.rec.ObserveRenderDuration(elapsed.Seconds())
	}
	log.Info("render completed",
		"elapsed_ms", res.ElapsedMS,
		"audio_ms", res.AudioMS,
		"video_ms", res.VideoMS)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, job *Job, log *logger.Logger) (res *Result, err error) {
	srtPath := ""
	outputPath := filepath.Join(o.outputDir, job.ID+".mp4")
	defer func() {
		o.removeQuiet(job.AudioPath)
		o.removeQuiet(srtPath)
		if err != nil {
			o.removeQuiet(outputPath)
		}
	}()

	bgPath, err := o.resolver.Resolve(ctx, job.BackgroundURL)
	if err != nil {
		return nil, err
	}
	endPath, err := o.resolver.Resolve(ctx, job.EndCardURL)
	if err != nil {
		return nil, err
	}
	cardPaths := make([]string, 0, len(job.CardURLs))
	for _, u := range job.CardURLs {
		p, rerr := o.resolver.Resolve(ctx, u)
		if rerr != nil {
			return nil, rerr
		}
		cardPaths = append(cardPaths, p)
	}

	audioDur, err := o.prober.Probe(ctx, job.AudioPath)
	if err != nil {
		return nil, err
	}
	videoDur := compose.VideoDuration(audioDur)
	log.Debug("probed audio",
		"audio_ms", audioDur.Milliseconds(),
		"video_ms", videoDur.Milliseconds())

	fitted := o.fitter.Fit(job.Lines, audioDur)
	if !job.DisableSubtitles && len(fitted) > 0 {
		srtPath = filepath.Join(o.workDir, job.ID+".srt")
		if werr := subtitles.WriteSRT(srtPath, fitted); werr != nil {
			return nil, errors.Wrap(werr, "render.run", "writing subtitle file")
		}
	}

	prog, err := compose.Build(compose.Request{
		Spec:           job.Spec,
		BackgroundPath: bgPath,
		EndCardPath:    endPath,
		CardPaths:      cardPaths,
		AudioPath:      job.AudioPath,
		Title:          job.Title,
		Footer:         job.Footer,
		SubtitlePath:   srtPath,
		AudioDur:       audioDur,
		VideoDur:       videoDur,
		OutputPath:     outputPath,
	})
	if err != nil {
		return nil, err
	}

	encRes, err := o.enc.Run(ctx, prog.Args, o.soft, o.hard)
	res = &Result{
		AudioMS:          audioDur.Milliseconds(),
		VideoMS:          videoDur.Milliseconds(),
		DisableSubtitles: job.DisableSubtitles,
	}
	if encRes != nil {
		if encRes.HasLast {
			last := encRes.Last
			res.Last = &last
		}
		res.Samples = encRes.Samples
	}
	if err != nil {
		return res, err
	}

	name := job.ID + ".mp4"
	res.DownloadURL = "/videos/" + name
	if o.publisher != nil {
		url, perr := o.publisher.Publish(ctx, outputPath, name)
		if perr != nil {
			// The local file is intact and servable, so publishing is
			// advisory rather than fatal.
			log.WithError(perr).Warn("publish failed, serving local file")
		} else {
			res.DownloadURL = url
		}
	}
	return res, nil
}

func (o *Orchestrator) removeQuiet(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		o.log.WithError(err).Warn("cleanup failed", "path", path)
	}
}
