package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"papercast/internal/components"
	"papercast/internal/graphic"
	"papercast/internal/metrics"
	"papercast/internal/pdftext"
	"papercast/internal/workflow"
)

type Request struct {
	PDF    []byte
	Name   string
	Remark string
}

type AbstractResult struct {
	RunID        string
	Dir          string
	Extracted    pdftext.ExtractedText
	WorkflowText string
	Workflow     *workflow.Workflow
	Diagram      string
	Components   components.Result
	SVG          string
	Artifacts    map[string]string
	Notices      []Notice
}

// HasDiagram reports whether the workflow yielded at least one edge.
func (r *AbstractResult) HasDiagram() bool {
	return r.Diagram != ""
}

type AbstractPipeline struct {
	service *Service
}

func NewAbstractPipeline(service *Service) *AbstractPipeline {
	return &AbstractPipeline{service: service}
}

// Run builds the Mermaid diagram and the SVG abstract for one paper. A failed
// workflow stage only drops the diagram and a failed components stage falls
// back to placeholder components. Only an extraction failure returns an
// error; the result is returned alongside it so its notices can be shown.
func (pipeline *AbstractPipeline) Run(ctx context.Context, req Request) (*AbstractResult, error) {
	svc := pipeline.service
	cfg := svc.Config()
	result := &AbstractResult{Artifacts: map[string]string{}}
	var ns notices
	defer func() { result.Notices = ns }()

	sess, err := newSession(cfg.Output.Dir, req.Name)
	if err != nil {
		return result, err
	}
	result.RunID, result.Dir = sess.id, sess.dir
	log := slog.With("run", sess.id, "pipeline", metrics.PipelineAbstract)

	start := time.Now()
	log.Info("Extracting text...", "stage", StageExtract, "bytes", len(req.PDF))
	extracted, err := pdftext.ExtractSections(ctx, svc.AbstractPDF(), req.PDF, cfg.PDF.PrefixChars)
	metrics.ObserveStage(metrics.PipelineAbstract, string(StageExtract), start)
	if err != nil {
		ns.add(NoticeError, "Could not read text from the PDF: %v", err)
		return result, pipeline.fail(StageExtract, ErrExtraction, err)
	}
	result.Extracted = extracted
	if extracted.Fallback {
		ns.add(NoticeInfo, "Abstract and methodology sections not found; using the start of the paper")
	}

	pipeline.buildDiagram(ctx, log, sess, result, &ns)
	pipeline.buildGraphic(ctx, log, sess, result, &ns)

	publish(ctx, svc, log, sess, result.Artifacts, &ns)

	outcome := metrics.OutcomeSuccess
	if ns.degraded() {
		outcome = metrics.OutcomePartial
	}
	metrics.PipelineRuns.WithLabelValues(metrics.PipelineAbstract, outcome).Inc()
	log.Info("Graphical abstract finished", "outcome", outcome, "dir", sess.dir)
	return result, nil
}

func (pipeline *AbstractPipeline) buildDiagram(ctx context.Context, log *slog.Logger, sess *session, result *AbstractResult, ns *notices) {
	client := pipeline.service.AbstractLLM()
	if client == nil {
		pipeline.stageFailed(StageWorkflow)
		ns.add(NoticeWarning, "Workflow diagram skipped: language model is not configured")
		return
	}

	start := time.Now()
	log.Info("Extracting workflow...", "stage", StageWorkflow)
	raw, err := client.ExtractWorkflow(ctx, result.Extracted.Text)
	metrics.ObserveStage(metrics.PipelineAbstract, string(StageWorkflow), start)
	if err != nil {
		log.Warn("Workflow extraction failed", "error", err)
		pipeline.stageFailed(StageWorkflow)
		ns.add(NoticeWarning, "Workflow diagram skipped: %v", stageError(StageWorkflow, ErrService, err))
		return
	}

	result.WorkflowText = workflow.Normalize(raw)
	if p, err := sess.write(ArtifactWorkflow, []byte(result.WorkflowText)); err == nil {
		result.Artifacts[ArtifactWorkflow] = p
	} else {
		log.Warn("Failed to save workflow", "error", err)
	}

	result.Workflow = workflow.Parse(result.WorkflowText)
	log.Debug("Workflow parsed", "accepted", result.Workflow.Accepted, "ignored", result.Workflow.Ignored)
	if result.Workflow.IsEmpty() {
		pipeline.stageFailed(StageWorkflow)
		ns.add(NoticeWarning, "Workflow diagram skipped: %v", stageError(StageWorkflow, ErrParse, errors.New("no valid steps in model output")))
		return
	}
	if result.Workflow.Ignored > 0 {
		ns.add(NoticeInfo, "Ignored %d malformed workflow line(s)", result.Workflow.Ignored)
	}

	result.Diagram = result.Workflow.Mermaid()
	if p, err := sess.write(ArtifactDiagram, []byte(result.Diagram)); err == nil {
		result.Artifacts[ArtifactDiagram] = p
	} else {
		log.Warn("Failed to save diagram", "error", err)
	}
}

func (pipeline *AbstractPipeline) buildGraphic(ctx context.Context, log *slog.Logger, sess *session, result *AbstractResult, ns *notices) {
	start := time.Now()
	log.Info("Extracting components...", "stage", StageComponents)

	var raw string
	var err error
	if client := pipeline.service.AbstractLLM(); client != nil {
		raw, err = client.ExtractComponents(ctx, result.Extracted.Text)
	} else {
		err = errors.New("language model is not configured")
	}
	metrics.ObserveStage(metrics.PipelineAbstract, string(StageComponents), start)

	switch {
	case err != nil:
		log.Warn("Component extraction failed", "error", err)
		pipeline.stageFailed(StageComponents)
		ns.add(NoticeWarning, "Using placeholder components: %v", stageError(StageComponents, ErrService, err))
		result.Components = components.Result{
			Paper:  components.Default(),
			Source: components.SourceDefault,
			Err:    err,
		}
	default:
		result.Components = components.Parse(raw)
		if result.Components.IsDefault() {
			pipeline.stageFailed(StageComponents)
			ns.add(NoticeWarning, "Using placeholder components: %v", stageError(StageComponents, ErrParse, result.Components.Err))
		} else if len(result.Components.Repaired) > 0 {
			ns.add(NoticeInfo, "Replaced invalid component fields with defaults: %s", strings.Join(result.Components.Repaired, ", "))
		}
	}

	if data, err := result.Components.Paper.JSON(); err == nil {
		if p, err := sess.write(ArtifactComponents, data); err == nil {
			result.Artifacts[ArtifactComponents] = p
		} else {
			log.Warn("Failed to save components", "error", err)
		}
	}

	start = time.Now()
	result.SVG = graphic.Render(result.Components.Paper)
	metrics.ObserveStage(metrics.PipelineAbstract, string(StageRender), start)
	if p, err := sess.write(ArtifactSVG, []byte(result.SVG)); err == nil {
		result.Artifacts[ArtifactSVG] = p
	} else {
		ns.add(NoticeError, "Could not save the graphical abstract: %v", err)
	}
}

func (pipeline *AbstractPipeline) stageFailed(stage Stage) {
	metrics.StageFailures.WithLabelValues(metrics.PipelineAbstract, string(stage)).Inc()
}

func (pipeline *AbstractPipeline) fail(stage Stage, kind, err error) error {
	pipeline.stageFailed(stage)
	metrics.PipelineRuns.WithLabelValues(metrics.PipelineAbstract, metrics.OutcomeFailure).Inc()
	return stageError(stage, kind, err)
}

// publish hands every local artifact to the store and replaces its entry with
// the published location.
func publish(ctx context.Context, svc *Service, log *slog.Logger, sess *session, artifacts map[string]string, ns *notices) {
	store := svc.Store()
	if store == nil {
		return
	}
	for name, local := range artifacts {
		location, err := store.Publish(ctx, sess.id, local)
		if err != nil {
			log.Warn("Failed to publish artifact", "artifact", name, "error", err)
			ns.add(NoticeWarning, "Could not publish %s: %v", name, fmt.Errorf("%s: %w", StagePublish, err))
			continue
		}
		artifacts[name] = location
	}
}
