package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlopezav/recibos/internal/core/category"
	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/infrastructure/resilience"
)

// Classifier extracts a candidate transaction from recognized receipt text
// via the remote model, retrying transient failures with exponential backoff
// and validating the untrusted response before handing it to the caller.
type Classifier struct {
	client   *Client
	executor *resilience.Executor
	resolver *category.Resolver
}

func NewClassifier(client *Client, executor *resilience.Executor, resolver *category.Resolver) *Classifier {
	return &Classifier{
		client:   client,
		executor: executor,
		resolver: resolver,
	}
}

func (c *Classifier) Classify(ctx context.Context, rawText string) (domain.ExtractedData, error) {
	if strings.TrimSpace(rawText) == "" {
		return domain.ExtractedData{}, domain.WrapError(domain.ErrValidation, "classify", errors.New("empty receipt text"))
	}

	var content string
	err := c.executor.Execute(ctx, "openai.classify", func(callCtx context.Context) error {
		out, callErr := c.client.chatJSON(callCtx, systemPrompt, userPrompt(rawText))
		if callErr != nil {
			return callErr
		}
		content = out
		return nil
	}, classifyRemoteError)
	if err != nil {
		return domain.ExtractedData{}, domain.WrapError(domain.ErrClassifierUnavailable, "classify receipt text", err)
	}

	return c.coerce(content, rawText)
}

// coerce validates the model's JSON against the ExtractedData shape.
// Malformed JSON degrades to an empty object; wrong-typed description or
// amount is a validation error; null amount/date stay unset rather than
// becoming zero values; confidence is clamped into [0,1]. The returned
// category is always re-resolved through the keyword resolver, the raw
// category text is never trusted.
func (c *Classifier) coerce(content, rawText string) (domain.ExtractedData, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &raw); err != nil {
		raw = map[string]any{}
	}

	data := domain.ExtractedData{RawText: rawText}

	switch v := raw["description"].(type) {
	case nil:
	case string:
		data.Description = v
	default:
		return domain.ExtractedData{}, domain.WrapError(domain.ErrValidation, "coerce description", fmt.Errorf("unexpected type %T", v))
	}

	switch v := raw["amount"].(type) {
	case nil:
	case float64:
		if v < 0 {
			return domain.ExtractedData{}, domain.WrapError(domain.ErrValidation, "coerce amount", fmt.Errorf("negative amount %v", v))
		}
		amount := v
		data.Amount = &amount
	default:
		return domain.ExtractedData{}, domain.WrapError(domain.ErrValidation, "coerce amount", fmt.Errorf("unexpected type %T", v))
	}

	if v, ok := raw["vendor"].(string); ok {
		data.Vendor = v
	}

	// Unparseable dates stay unset: a wrong date is worse than no date.
	if v, ok := raw["date"].(string); ok {
		if _, err := time.Parse("2006-01-02", v); err == nil {
			date := v
			data.Date = &date
		}
	}

	if v, ok := raw["confidence"].(float64); ok {
		data.Confidence = clamp01(v)
	}

	categoryText, _ := raw["category"].(string)
	if strings.TrimSpace(categoryText) == "" {
		categoryText = data.Description
	}
	data.Category = c.resolver.Resolve(categoryText)

	return data, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
