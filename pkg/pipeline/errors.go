package pipeline

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies where in the pipeline a failure happened
type Kind string

const (
	KindInput      Kind = "input"
	KindAnalysis   Kind = "analysis"
	KindEnrichment Kind = "enrichment"
	KindPersist    Kind = "persist"
)

var (
	// ErrMissingRecords is returned when the trigger event has no Records array.
	ErrMissingRecords = errors.New("event has no Records")

	// ErrMalformedRecord is returned when a record lacks its bucket name or object key.
	ErrMalformedRecord = errors.New("record is missing s3 bucket name or object key")

	// ErrUnrecognizedExtension is returned when no result key can be derived
	// from an object key.
	ErrUnrecognizedExtension = errors.New("object key has no recognized extension")
)

// StageError is a failure of one pipeline stage for one document.
type StageError struct {
	Kind Kind
	Ref  DocumentRef
	Err  error
}

func (e *StageError) Error() string {
	if e.Ref == (DocumentRef{}) {
		return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failure for %s: %v", e.Kind, e.Ref, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the underlying external error.
func (e *StageError) Cause() error { return e.Err }

// InputFailure wraps a malformed event or an underivable result key.
func InputFailure(ref DocumentRef, err error) error {
	return &StageError{Kind: KindInput, Ref: ref, Err: err}
}

// AnalysisFailure wraps a document analysis error.
func AnalysisFailure(ref DocumentRef, err error) error {
	return &StageError{Kind: KindAnalysis, Ref: ref, Err: err}
}

// EnrichmentFailure wraps an entity recognition error.
func EnrichmentFailure(ref DocumentRef, err error) error {
	return &StageError{Kind: KindEnrichment, Ref: ref, Err: err}
}

// PersistFailure wraps a result write error.
func PersistFailure(ref DocumentRef, err error) error {
	return &StageError{Kind: KindPersist, Ref: ref, Err: err}
}

// KindOf returns the stage kind of err, or "" if err is not a StageError.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func IsInputFailure(err error) bool      { return KindOf(err) == KindInput }
func IsAnalysisFailure(err error) bool   { return KindOf(err) == KindAnalysis }
func IsEnrichmentFailure(err error) bool { return KindOf(err) == KindEnrichment }
func IsPersistFailure(err error) bool    { return KindOf(err) == KindPersist }

// StatusCode collapses any failure into the single invocation failure status.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
