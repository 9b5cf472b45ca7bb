package usecase

import (
	"github.com/dlopezav/recibos/internal/core/category"
	"github.com/dlopezav/recibos/internal/core/domain"
)

const fallbackDescriptionRunes = 100

// fallbackConfidence marks keyword-only candidates so downstream consumers
// can tell them apart from classifier output.
const fallbackConfidence = 0.5

// FallbackExtraction builds a deterministic candidate from recognized text
// alone. It is used whenever the remote classifier is disabled, unreachable
// or returns something unusable, so a degraded pipeline still yields a
// reviewable result instead of a failed receipt.
func FallbackExtraction(rawText string, resolver *category.Resolver) domain.ExtractedData {
	description := rawText
	if runes := []rune(rawText); len(runes) > fallbackDescriptionRunes {
		description = string(runes[:fallbackDescriptionRunes])
	}
	return domain.ExtractedData{
		Description: description,
		Category:    resolver.Resolve(rawText),
		Confidence:  fallbackConfidence,
		RawText:     rawText,
	}
}
