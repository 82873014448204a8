package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"papercast/internal/audio"
	"papercast/internal/dialogue"
	"papercast/internal/llm"
	"papercast/internal/metrics"
	"papercast/internal/pdftext"
	"papercast/internal/podcast"
)

type PodcastResult struct {
	RunID     string
	Dir       string
	Extracted pdftext.ExtractedText
	RawScript string
	Script    *dialogue.Script
	Synthesis *podcast.Result
	Audio     *audio.Result
	Artifacts map[string]string
	Notices   []Notice
}

// Playable reports whether the combined file holds any audio.
func (r *PodcastResult) Playable() bool {
	return r != nil && r.Audio.Playable()
}

type PodcastPipeline struct {
	service *Service
}

func NewPodcastPipeline(service *Service) *PodcastPipeline {
	return &PodcastPipeline{service: service}
}

// Run writes a two-speaker script for the paper and voices it. progress
// receives (0, total) once the script is parsed, then one call per line. The
// result is returned even alongside an error so its notices can be shown.
func (pipeline *PodcastPipeline) Run(ctx context.Context, req Request, progress podcast.ProgressFunc) (*PodcastResult, error) {
	svc := pipeline.service
	cfg := svc.Config()
	result := &PodcastResult{Artifacts: map[string]string{}}
	var ns notices
	defer func() { result.Notices = ns }()

	sess, err := newSession(cfg.Output.Dir, req.Name)
	if err != nil {
		return result, err
	}
	result.RunID, result.Dir = sess.id, sess.dir
	log := slog.With("run", sess.id, "pipeline", metrics.PipelinePodcast)

	start := time.Now()
	log.Info("Extracting text...", "stage", StageExtract, "bytes", len(req.PDF))
	extracted, err := pdftext.ExtractBody(ctx, svc.PodcastPDF(), req.PDF)
	metrics.ObserveStage(metrics.PipelinePodcast, string(StageExtract), start)
	if err != nil {
		ns.add(NoticeError, "Could not read text from the PDF: %v", err)
		return result, pipeline.fail(StageExtract, ErrExtraction, err)
	}
	result.Extracted = extracted

	raw, err := pipeline.writeScript(ctx, log, extracted.Text, req.Remark)
	if err != nil {
		ns.add(NoticeError, "Could not write the podcast script: %v", err)
		return result, pipeline.fail(StageScript, ErrEmptyResult, scriptCause(err))
	}
	result.RawScript = raw
	if p, err := sess.write(ArtifactScript, []byte(raw)); err == nil {
		result.Artifacts[ArtifactScript] = p
	} else {
		log.Warn("Failed to save script", "error", err)
	}

	result.Script = dialogue.Parse(raw)
	log.Info("Script formatted", "stage", StageFormat, "lines", len(result.Script.Lines), "ignored", result.Script.Ignored)
	if result.Script.IsEmpty() {
		pipeline.stageFailed(StageFormat)
		ns.add(NoticeWarning, "The script contained no speaker lines")
	} else if result.Script.Ignored > 0 {
		ns.add(NoticeInfo, "Skipped %d line(s) without a speaker label", result.Script.Ignored)
	}

	if svc.TTS() == nil {
		err := errors.New("speech provider is not configured")
		ns.add(NoticeError, "Could not synthesize audio: %v", err)
		return result, pipeline.fail(StageSynthesize, ErrService, err)
	}

	synth := podcast.NewSynthesizer(svc.TTS(), svc.Voices(),
		podcast.WithParallelism(cfg.TTS.Parallelism),
		podcast.WithLineObserver(metrics.RecordLine),
	)

	if progress != nil {
		progress(0, len(result.Script.Lines))
	}

	start = time.Now()
	log.Info("Generating speech...", "stage", StageSynthesize, "total", len(result.Script.Lines))
	synthesis, err := synth.Synthesize(ctx, sess.dir, result.Script.Lines, progress)
	metrics.ObserveStage(metrics.PipelinePodcast, string(StageSynthesize), start)
	if err != nil {
		ns.add(NoticeError, "Speech synthesis was interrupted: %v", err)
		return result, pipeline.fail(StageSynthesize, ErrService, err)
	}
	result.Synthesis = synthesis
	if synthesis.Failed > 0 {
		pipeline.stageFailed(StageSynthesize)
		ns.add(NoticeWarning, "%d of %d line(s) could not be synthesized and were skipped", synthesis.Failed, synthesis.Total)
	}

	start = time.Now()
	log.Info("Assembling podcast...", "stage", StageAssemble, "segments", len(synthesis.Segments))
	assembled, err := svc.Assembler().Assemble(ctx, synthesis.Paths(), sess.path(ArtifactPodcast))
	metrics.ObserveStage(metrics.PipelinePodcast, string(StageAssemble), start)
	if err != nil {
		ns.add(NoticeError, "Could not assemble the podcast: %v", err)
		return result, pipeline.fail(StageAssemble, ErrService, err)
	}
	result.Audio = assembled
	result.Artifacts[ArtifactPodcast] = assembled.Path
	if !assembled.Playable() {
		ns.add(NoticeWarning, "No audio was produced; the podcast file is empty")
	}

	publish(ctx, svc, log, sess, result.Artifacts, &ns)

	outcome := metrics.OutcomeSuccess
	if ns.degraded() {
		outcome = metrics.OutcomePartial
	}
	metrics.PipelineRuns.WithLabelValues(metrics.PipelinePodcast, outcome).Inc()
	log.Info("Podcast finished", "outcome", outcome, "gaps", assembled.Gaps, "dir", sess.dir)
	return result, nil
}

func (pipeline *PodcastPipeline) writeScript(ctx context.Context, log *slog.Logger, text, remark string) (string, error) {
	client := pipeline.service.PodcastLLM()
	if client == nil {
		return "", errors.New("language model is not configured")
	}

	start := time.Now()
	log.Info("Generating script...", "stage", StageScript, "remark", remark != "")
	defer metrics.ObserveStage(metrics.PipelinePodcast, string(StageScript), start)
	return client.WriteScript(ctx, text, remark)
}

// scriptCause marks a failed call as a service error; an empty answer is
// left as is.
func scriptCause(err error) error {
	if errors.Is(err, llm.ErrEmptyResponse) || errors.Is(err, llm.ErrNoResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrService, err)
}

func (pipeline *PodcastPipeline) stageFailed(stage Stage) {
	metrics.StageFailures.WithLabelValues(metrics.PipelinePodcast, string(stage)).Inc()
}

func (pipeline *PodcastPipeline) fail(stage Stage, kind, err error) error {
	pipeline.stageFailed(stage)
	metrics.PipelineRuns.WithLabelValues(metrics.PipelinePodcast, metrics.OutcomeFailure).Inc()
	return stageError(stage, kind, err)
}
