package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: " \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error should wrap ErrEmptyString, got %v", err)
			}
		})
	}
}

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		wantErr error
		mutate  func(*model.JournalEntry)
		name    string
	}{
		{name: "valid entry", mutate: func(*model.JournalEntry) {}},
		{name: "missing ID", mutate: func(e *model.JournalEntry) { e.EntryID = "" }, wantErr: ErrInvalidEntry},
		{name: "missing date", mutate: func(e *model.JournalEntry) { e.Date = time.Time{} }, wantErr: ErrInvalidEntry},
		{name: "unknown status", mutate: func(e *model.JournalEntry) { e.ReviewStatus = "done" }, wantErr: ErrInvalidStatus},
		{name: "no credit lines", mutate: func(e *model.JournalEntry) { e.Credits = nil }, wantErr: ErrInvalidEntry},
		{name: "posted unbalanced", mutate: func(e *model.JournalEntry) { e.IsBalanced = false }, wantErr: common.ErrJournalImbalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEntry("JE-V-0001", 1, 100, true, true)
			tt.mutate(&e)
			err := validateEntry(&e)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateEntry() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
