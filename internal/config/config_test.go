package config

import (
	"testing"
	"time"
)

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("OCR_LANGUAGES", "")
	t.Setenv("OCR_IDLE_TIMEOUT", "")
	t.Setenv("CLASSIFIER_MAX_ATTEMPTS", "")
	t.Setenv("CLASSIFIER_INITIAL_BACKOFF", "")
	t.Setenv("PREPROCESS_THRESHOLD", "")

	cfg := Load()
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[0] != "spa" || cfg.OCRLanguages[1] != "eng" {
		t.Fatalf("expected default languages [spa eng], got %v", cfg.OCRLanguages)
	}
	if cfg.OCRIdleTimeout != 30*time.Minute {
		t.Fatalf("expected default idle timeout 30m, got %s", cfg.OCRIdleTimeout)
	}
	if cfg.ClassifierMaxAttempts != 3 {
		t.Fatalf("expected default 3 classifier attempts, got %d", cfg.ClassifierMaxAttempts)
	}
	if cfg.ClassifierInitialBackoff != time.Second {
		t.Fatalf("expected default 1s initial backoff, got %s", cfg.ClassifierInitialBackoff)
	}
	if cfg.PreprocessThreshold != 200 {
		t.Fatalf("expected default threshold 200, got %d", cfg.PreprocessThreshold)
	}
}

func TestLoadParsesPipelineOverrides(t *testing.T) {
	t.Setenv("OCR_IDLE_TIMEOUT", "10m")
	t.Setenv("CLASSIFIER_INITIAL_BACKOFF", "250ms")
	t.Setenv("INCOME_KEYWORDS", "nomina, honorarios ,")

	cfg := Load()
	if cfg.OCRIdleTimeout != 10*time.Minute {
		t.Fatalf("expected idle timeout override 10m, got %s", cfg.OCRIdleTimeout)
	}
	if cfg.ClassifierInitialBackoff != 250*time.Millisecond {
		t.Fatalf("expected backoff override 250ms, got %s", cfg.ClassifierInitialBackoff)
	}
	if len(cfg.IncomeKeywords) != 2 || cfg.IncomeKeywords[0] != "nomina" || cfg.IncomeKeywords[1] != "honorarios" {
		t.Fatalf("expected trimmed keyword list, got %v", cfg.IncomeKeywords)
	}
}

func TestAIEnabled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if Load().AIEnabled() {
		t.Fatalf("expected AI disabled without credentials")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if !Load().AIEnabled() {
		t.Fatalf("expected AI enabled with credentials")
	}
}
