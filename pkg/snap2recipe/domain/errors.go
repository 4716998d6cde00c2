package domain

import "errors"

// ErrorKind tells which pipeline stage failed. The orchestrator chooses the next transition by the kind, not by
// inspecting error messages.
type ErrorKind int

const (
	// AcquisitionError the image couldn't be fetched or decoded. Pipeline-fatal.
	AcquisitionError = ErrorKind(iota + 1)
	// ClassificationError the food classifier failed. Pipeline-fatal.
	ClassificationError
	// CaptionError the caption generator failed. Pipeline-fatal.
	CaptionError
	// GenerationError the remote recipe service failed. Always recovered inside RecipeGenerator.
	GenerationError
	// NotificationError a message couldn't be delivered to the user.
	NotificationError
)

func (k ErrorKind) String() string {
	switch k {
	case AcquisitionError:
		return "image acquisition failed"
	case ClassificationError:
		return "food classification failed"
	case CaptionError:
		return "caption generation failed"
	case GenerationError:
		return "recipe generation failed"
	case NotificationError:
		return "notification failed"
	default:
		return "unknown failure"
	}
}

// StageError wraps a failure of one pipeline stage together with its kind.
type StageError struct {
	Kind ErrorKind
	Err  error
}

func NewStageError(kind ErrorKind, err error) *StageError {
	return &StageError{Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first StageError found in the chain of `err`.
func KindOf(err error) (ErrorKind, bool) {
	var stageError *StageError
	if errors.As(err, &stageError) {
		return stageError.Kind, true
	}
	return 0, false
}

// IsKind says whether `err` is a StageError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	actual, ok := KindOf(err)
	return ok && actual == kind
}
