package tesseract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine is one live text-recognition instance. Implementations are not safe
// for concurrent Recognize calls; the Manager serializes access.
type Engine interface {
	Recognize(image []byte) (string, error)
	Close() error
}

// EngineFactory builds a fresh engine. The Manager calls it lazily and again
// after every recycle.
type EngineFactory func() (Engine, error)

// NewEngineFactory returns a factory producing gosseract-backed engines with
// the given language set loaded simultaneously (e.g. spa+eng for bilingual
// receipts).
func NewEngineFactory(languages []string, tessdataDir string) EngineFactory {
	return func() (Engine, error) {
		client := gosseract.NewClient()
		if tessdataDir != "" {
			if err := client.SetTessdataPrefix(tessdataDir); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("set tessdata prefix: %w", err)
			}
		}
		if len(languages) > 0 {
			if err := client.SetLanguage(languages...); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("set languages %v: %w", languages, err)
			}
		}
		return &gosseractEngine{client: client}, nil
	}
}

type gosseractEngine struct {
	client *gosseract.Client
}

func (e *gosseractEngine) Recognize(image []byte) (string, error) {
	if err := e.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return text, nil
}

func (e *gosseractEngine) Close() error {
	return e.client.Close()
}
