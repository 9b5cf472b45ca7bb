package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/core/ports"
)

const mimePDF = "application/pdf"

// ExtractTextUseCase turns one uploaded receipt into cleaned text.
// Images go through preprocessing and OCR; single-page PDFs with an embedded
// text layer skip both and read the layer directly.
type ExtractTextUseCase struct {
	preprocessor ports.ImagePreprocessor
	recognizer   ports.TextRecognizer
	pdfText      ports.PDFTextExtractor
	logger       *slog.Logger
}

func NewExtractTextUseCase(
	preprocessor ports.ImagePreprocessor,
	recognizer ports.TextRecognizer,
	pdfText ports.PDFTextExtractor,
	logger *slog.Logger,
) *ExtractTextUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractTextUseCase{
		preprocessor: preprocessor,
		recognizer:   recognizer,
		pdfText:      pdfText,
		logger:       logger,
	}
}

func (uc *ExtractTextUseCase) ExtractText(ctx context.Context, image domain.RawImage) (string, error) {
	if len(image.Data) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty payload"))
	}

	if image.MimeType == mimePDF && uc.pdfText != nil {
		return uc.extractFromPDF(ctx, image.Data)
	}

	processed, err := uc.preprocessor.Preprocess(image.Data)
	if err != nil {
		return "", err
	}

	text, err := uc.recognizer.Recognize(ctx, processed)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrNoTextExtracted, "extract text", errors.New("recognition produced no usable text"))
	}
	return text, nil
}

func (uc *ExtractTextUseCase) extractFromPDF(ctx context.Context, data []byte) (string, error) {
	raw, err := uc.pdfText.Extract(ctx, data)
	if err != nil {
		return "", err
	}
	text := domain.CleanText(raw)
	if text == "" {
		// Raster-only PDF. Rendering pages to images is out of reach here,
		// so the receipt fails the same way as a blank photo would.
		uc.logger.Warn("pdf_text_layer_empty")
		return "", domain.WrapError(domain.ErrNoTextExtracted, "extract pdf text", errors.New("pdf has no text layer"))
	}
	return text, nil
}
