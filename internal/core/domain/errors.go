package domain

import (
	"errors"
	"fmt"
)

var (
	ErrReceiptNotFound     = errors.New("receipt not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTemporary           = errors.New("temporary failure")
)

// Pipeline error kinds. The HTTP layer maps these to status codes and the
// process use case decides which ones trigger the keyword fallback.
var (
	// ErrPreprocessing marks an image decode/transform failure. Not retried.
	ErrPreprocessing = errors.New("image preprocessing failed")

	// ErrWorkerBusy marks a rejected concurrent recognition attempt.
	// Callers retry later; requests are never queued.
	ErrWorkerBusy = errors.New("recognition worker busy")

	// ErrNoTextExtracted marks recognition that produced no usable text.
	// Terminal: the same image through the same engine will not do better.
	ErrNoTextExtracted = errors.New("no text extracted")

	// ErrClassifierUnavailable marks remote classification that failed on
	// every attempt. The caller falls back to keyword-only classification.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrValidation marks a remote classifier response that could not be
	// coerced into ExtractedData. Treated like unavailability by callers.
	ErrValidation = errors.New("classifier output invalid")
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
