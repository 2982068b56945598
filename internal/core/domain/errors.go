package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrGapAnalysisNotFound = errors.New("gap analysis not found")
	ErrTaskNotFound        = errors.New("task not found")

	// Idempotent no-ops: the entity the caller tried to create already
	// exists. Retrying callers should treat these as success.
	ErrAlreadyExists     = errors.New("already exists")
	ErrAlreadyClassified = errors.New("document already classified")
	ErrAlreadyAnalyzed   = errors.New("document already analyzed")

	// Precondition failures: the caller must resolve the missing
	// prerequisite before retrying.
	ErrContentMissing        = errors.New("document content missing")
	ErrClassificationMissing = errors.New("classification missing")
	ErrNotRelevant           = errors.New("document not relevant")

	ErrInvalidInput      = errors.New("invalid input")
	ErrValidation        = errors.New("validation failure")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Reasoning/embedding engine failure or timeout. Retryable with
	// backoff; no partial state is left behind.
	ErrEngine = errors.New("external engine failure")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
