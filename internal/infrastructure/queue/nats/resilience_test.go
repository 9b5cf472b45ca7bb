package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/dlopezav/recibos/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{name: "cancelled", err: context.Canceled, retryable: false, recordFailure: false},
		{name: "no servers", err: nats.ErrNoServers, retryable: true, recordFailure: true},
		{name: "timeout", err: nats.ErrTimeout, retryable: true, recordFailure: true},
		{name: "connection closed", err: nats.ErrConnectionClosed, retryable: true, recordFailure: true},
		{name: "unknown", err: errors.New("bad subject"), retryable: false, recordFailure: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := classifyNATSError(tt.err)
			if class.Retryable != tt.retryable || class.RecordFailure != tt.recordFailure {
				t.Fatalf("classifyNATSError(%v) = %+v", tt.err, class)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if err := wrapTemporaryIfNeeded(nil); err != nil {
		t.Fatalf("nil must stay nil, got %v", err)
	}

	wrapped := wrapTemporaryIfNeeded(nats.ErrDisconnected)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Fatalf("retryable nats error must wrap as temporary, got %v", wrapped)
	}

	plain := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(plain); !errors.Is(got, plain) || domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("non-retryable error must pass through, got %v", got)
	}
}
