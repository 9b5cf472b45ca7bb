package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/dlopezav/recibos/internal/core/domain"
)

// Extractor reads the embedded text layer of a single-page PDF so uploads
// that already carry machine-readable text skip the OCR path entirely.
// Scanned (raster-only) PDFs come back empty and are rejected upstream.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrPreprocessing, "parse pdf", err)
	}

	if n := reader.NumPage(); n != 1 {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf text", fmt.Errorf("expected a single page, got %d", n))
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return "", domain.WrapError(domain.ErrPreprocessing, "extract pdf text", errors.New("missing page object"))
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", domain.WrapError(domain.ErrPreprocessing, "read pdf text layer", err)
	}
	return text, nil
}
