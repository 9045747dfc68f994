package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	KindUnresolvedFigureReference   ErrorKind = "unresolved_figure_reference"
	KindImageDecodeFailure          ErrorKind = "image_decode_failure"
	KindMalformedAnalysisObject     ErrorKind = "malformed_analysis_object"
	KindUpstreamCollaboratorFailure ErrorKind = "upstream_collaborator_failure"
)

// Sentinels for errors.Is checks against a PipelineError
var (
	ErrUnresolvedReference = errors.New("figure reference could not be resolved")
	ErrImageDecode         = errors.New("image could not be decoded")
	ErrMalformedAnalysis   = errors.New("malformed analysis object")
	ErrUpstream            = errors.New("upstream collaborator failed")
)

var kindSentinels = map[ErrorKind]error{
	KindUnresolvedFigureReference:   ErrUnresolvedReference,
	KindImageDecodeFailure:          ErrImageDecode,
	KindMalformedAnalysisObject:     ErrMalformedAnalysis,
	KindUpstreamCollaboratorFailure: ErrUpstream,
}

// PipelineError carries the kind of failure, the operation that raised it and the cause
type PipelineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewPipelineError wraps err as a failure of the given kind
func NewPipelineError(kind ErrorKind, op string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *PipelineError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Fatal reports whether the failure aborts the whole run
func (k ErrorKind) Fatal() bool {
	return k == KindMalformedAnalysisObject || k == KindUpstreamCollaboratorFailure
}

// KindOf returns the kind of the first PipelineError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
