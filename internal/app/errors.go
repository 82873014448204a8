package app

import (
	"errors"
	"fmt"
)

// Failure kinds, matched with errors.Is against a StageError.
var (
	ErrExtraction  = errors.New("extraction error")
	ErrService     = errors.New("service error")
	ErrParse       = errors.New("parse error")
	ErrEmptyResult = errors.New("empty result")
)

type Stage string

const (
	StageExtract    Stage = "extract"
	StageWorkflow   Stage = "workflow"
	StageComponents Stage = "components"
	StageRender     Stage = "render"
	StageScript     Stage = "script"
	StageFormat     Stage = "format"
	StageSynthesize Stage = "synthesize"
	StageAssemble   Stage = "assemble"
	StagePublish    Stage = "publish"
)

type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageError(stage Stage, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message meant for the person who submitted the paper.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

type notices []Notice

func (n *notices) add(level NoticeLevel, format string, args ...any) {
	*n = append(*n, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// degraded reports whether anything above info was raised.
func (n notices) degraded() bool {
	for _, notice := range n {
		if notice.Level != NoticeInfo {
			return true
		}
	}
	return false
}
