package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name         string
		failures     int
		permanent    bool
		maxAttempts  int
		wantCalls    int
		wantErr      bool
		wantMaxRetry bool
	}{
		{name: "succeeds first time", failures: 0, maxAttempts: 2, wantCalls: 1},
		{name: "succeeds on retry", failures: 1, maxAttempts: 2, wantCalls: 2},
		{name: "exhausts attempts", failures: 5, maxAttempts: 2, wantCalls: 2, wantErr: true, wantMaxRetry: true},
		{name: "permanent error stops immediately", failures: 5, permanent: true, maxAttempts: 3, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return Permanent(errBoom)
					}
					return errBoom
				}
				return nil
			}, service.RetryOptions{MaxAttempts: tt.maxAttempts, InitialDelay: time.Millisecond})

			assert.Equal(t, tt.wantCalls, calls)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errBoom)
			assert.Equal(t, tt.wantMaxRetry, errors.Is(err, ErrMaxRetries))
		})
	}
}

func TestWithRetry_AttemptTimeout(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	}, service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, AttemptTimeout: 5 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func(context.Context) error {
		return errors.New("fail")
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrPasswordRequired, "PASSWORD_REQUIRED"},
		{NewUserError("bad password", ErrIncorrectPassword), "INCORRECT_PASSWORD"},
		{ErrUnsupportedDocument, "UNSUPPORTED_DOCUMENT"},
		{ErrDocumentTooLarge, "DOCUMENT_TOO_LARGE"},
		{ErrJournalImbalance, "JOURNAL_IMBALANCE"},
		{errors.New("other"), "INTERNAL"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err))
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(ErrIncorrectPassword))
	assert.True(t, IsTerminal(ErrDocumentTooLarge))
	assert.False(t, IsTerminal(ErrInsufficientExtraction))
	assert.False(t, IsTerminal(context.DeadlineExceeded))
}
