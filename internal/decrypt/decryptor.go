// Package decrypt detects PDF password protection and produces unencrypted copies.
package decrypt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

// Class describes how a document is protected.
type Class string

const (
	// ClassNone means the document carries no encryption.
	ClassNone Class = "none"
	// ClassOwner means only permissions are restricted; the document opens without a password.
	ClassOwner Class = "owner"
	// ClassUser means a password is needed to open the document.
	ClassUser Class = "user"
)

var errEncryptionNotProbed = errors.New("encryption scheme not supported by probe")

// Result is the outcome of Decrypt.
type Result struct {
	Class        Class
	Data         []byte
	WasEncrypted bool
	Rebuilt      bool
}

// Rebuilder writes an unencrypted copy of a protected PDF.
type Rebuilder interface {
	Rebuild(ctx context.Context, data []byte, password string) ([]byte, error)
}

// Decryptor implements password detection and removal for PDF documents.
type Decryptor struct {
	rebuilder Rebuilder
	logger    *slog.Logger
}

// New creates a decryptor. A nil rebuilder uses pdfcpu with the OS temp directory.
func New(rebuilder Rebuilder, logger *slog.Logger) *Decryptor {
	if rebuilder == nil {
		rebuilder = NewPDFCPURebuilder(NewTempFileManager(""))
	}
	return &Decryptor{
		rebuilder: rebuilder,
		logger:    common.LoggerOrDefault(logger),
	}
}

// IsPDF reports whether data starts with a PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\r\n\t "), []byte("%PDF-"))
}

// Decrypt returns a document that downstream extractors can open without a password.
//
// A user-password document without a password fails with common.ErrPasswordRequired;
// a wrong password fails with common.ErrIncorrectPassword. Owner-only restrictions never block.
func (d *Decryptor) Decrypt(ctx context.Context, data []byte, password string) (*Result, error) {
	if !IsPDF(data) {
		return &Result{Data: data, Class: ClassNone}, nil
	}

	class, err := Probe(data, password)
	if errors.Is(err, errEncryptionNotProbed) {
		return d.rebuildUnprobed(ctx, data, password)
	}
	if err != nil {
		return nil, err
	}

	switch class {
	case ClassNone:
		return &Result{Data: data, Class: ClassNone}, nil

	case ClassOwner:
		out, rerr := d.rebuilder.Rebuild(ctx, data, password)
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d.logger.Warn("Could not strip owner restrictions, continuing with original document",
				"error", rerr)
			return &Result{Data: data, Class: ClassOwner, WasEncrypted: true}, nil
		}
		return &Result{Data: out, Class: ClassOwner, WasEncrypted: true, Rebuilt: true}, nil

	default:
		out, rerr := d.rebuilder.Rebuild(ctx, data, password)
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, classifyRebuildError(rerr, password)
		}
		d.logger.Debug("Removed document password", "bytes", len(out))
		return &Result{Data: out, Class: ClassUser, WasEncrypted: true, Rebuilt: true}, nil
	}
}

func (d *Decryptor) rebuildUnprobed(ctx context.Context, data []byte, password string) (*Result, error) {
	out, err := d.rebuilder.Rebuild(ctx, data, password)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyRebuildError(err, password)
	}

	class := ClassUser
	if password == "" {
		class = ClassOwner
	}
	return &Result{Data: out, Class: class, WasEncrypted: true, Rebuilt: true}, nil
}

// Probe loads the document strictly and classifies its protection, verifying password when needed.
func Probe(data []byte, password string) (class Class, err error) {
	defer func() {
		if r := recover(); r != nil {
			class = ""
			err = fmt.Errorf("%w: malformed PDF: %v", common.ErrUnsupportedDocument, r)
		}
	}()

	size := int64(len(data))
	reader, err := pdf.NewReader(bytes.NewReader(data), size)
	if err == nil {
		if reader.Trailer().Key("Encrypt").IsNull() {
			return ClassNone, nil
		}
		return ClassOwner, nil
	}

	if !errors.Is(err, pdf.ErrInvalidPassword) {
		if isUnsupportedEncryption(err) {
			return "", fmt.Errorf("%w: %v", errEncryptionNotProbed, err)
		}
		return "", fmt.Errorf("%w: %v", common.ErrUnsupportedDocument, err)
	}

	if password == "" {
		return ClassUser, common.ErrPasswordRequired
	}

	_, err = pdf.NewReaderEncrypted(bytes.NewReader(data), size, singleUse(password))
	switch {
	case errors.Is(err, pdf.ErrInvalidPassword):
		return ClassUser, common.ErrIncorrectPassword
	case err != nil:
		return "", fmt.Errorf("%w: %v", common.ErrUnsupportedDocument, err)
	}

	return ClassUser, nil
}

// singleUse yields the password once; the reader keeps asking until it gets "".
func singleUse(password string) func() string {
	used := false
	return func() string {
		if used {
			return ""
		}
		used = true
		return password
	}
}

func isUnsupportedEncryption(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encryption") || strings.Contains(msg, "encrypted")
}

func classifyRebuildError(err error, password string) error {
	if strings.Contains(strings.ToLower(err.Error()), "password") {
		if password == "" {
			return common.ErrPasswordRequired
		}
		return fmt.Errorf("%w: %v", common.ErrIncorrectPassword, err)
	}
	return fmt.Errorf("%w: %v", common.ErrUnsupportedDocument, err)
}
