package decrypt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPURebuilder removes encryption with pdfcpu, staging files in a private temp directory.
type PDFCPURebuilder struct {
	temp *TempFileManager
}

// NewPDFCPURebuilder creates a rebuilder that stages files under temp.
func NewPDFCPURebuilder(temp *TempFileManager) *PDFCPURebuilder {
	return &PDFCPURebuilder{temp: temp}
}

// Rebuild writes data to disk, decrypts it and returns the fresh document.
// The working directory is removed on every return path.
func (b *PDFCPURebuilder) Rebuild(ctx context.Context, data []byte, password string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, cleanup, err := b.temp.CreateDir()
	defer cleanup()
	if err != nil {
		return nil, err
	}

	in := filepath.Join(dir, "input.pdf")
	out := filepath.Join(dir, "output.pdf")
	if err := os.WriteFile(in, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}

	conf := pdfmodel.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	if err := api.DecryptFile(in, out, conf); err != nil {
		return nil, fmt.Errorf("pdfcpu decrypt: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decrypted, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read rebuilt document: %w", err)
	}

	return decrypted, nil
}
