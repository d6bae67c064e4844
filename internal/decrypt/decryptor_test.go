package decrypt

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/testutil"
)

type fakeRebuilder struct {
	err       error
	out       []byte
	passwords []string
}

func (f *fakeRebuilder) Rebuild(_ context.Context, _ []byte, password string) ([]byte, error) {
	f.passwords = append(f.passwords, password)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

var statementLines = []string{
	"01/01/2024 Opening Balance 10,000.00",
	"02/01/2024 UPI/P2M/123/Acme Traders/Sale 5,000.00 Cr",
}

func TestDecryptor_Decrypt(t *testing.T) {
	plain := testutil.BuildPDF(statementLines)
	userLocked := testutil.BuildEncryptedPDF(statementLines, testutil.PDFSecurity{UserPassword: "secret", OwnerPassword: "owner"})
	ownerOnly := testutil.BuildEncryptedPDF(statementLines, testutil.PDFSecurity{OwnerPassword: "owner"})

	tests := []struct {
		name          string
		data          []byte
		password      string
		rebuilder     *fakeRebuilder
		wantErr       error
		wantClass     Class
		wantData      []byte
		wantRebuilds  int
		wantEncrypted bool
	}{
		{
			name:      "non pdf passes through",
			data:      []byte("date,description,amount\n"),
			rebuilder: &fakeRebuilder{},
			wantClass: ClassNone,
			wantData:  []byte("date,description,amount\n"),
		},
		{
			name:      "unencrypted pdf is untouched",
			data:      plain,
			rebuilder: &fakeRebuilder{},
			wantClass: ClassNone,
			wantData:  plain,
		},
		{
			name:      "user password missing",
			data:      userLocked,
			rebuilder: &fakeRebuilder{},
			wantErr:   common.ErrPasswordRequired,
		},
		{
			name:      "user password wrong",
			data:      userLocked,
			password:  "guess",
			rebuilder: &fakeRebuilder{},
			wantErr:   common.ErrIncorrectPassword,
		},
		{
			name:          "user password correct",
			data:          userLocked,
			password:      "secret",
			rebuilder:     &fakeRebuilder{out: plain},
			wantClass:     ClassUser,
			wantData:      plain,
			wantRebuilds:  1,
			wantEncrypted: true,
		},
		{
			name:          "owner restrictions are stripped",
			data:          ownerOnly,
			rebuilder:     &fakeRebuilder{out: plain},
			wantClass:     ClassOwner,
			wantData:      plain,
			wantRebuilds:  1,
			wantEncrypted: true,
		},
		{
			name:          "owner restrictions never block",
			data:          ownerOnly,
			rebuilder:     &fakeRebuilder{err: errors.New("owner password required")},
			wantClass:     ClassOwner,
			wantData:      ownerOnly,
			wantRebuilds:  1,
			wantEncrypted: true,
		},
		{
			name:      "corrupt pdf",
			data:      []byte("%PDF-1.4\nthis is not a pdf at all, just some text that goes on long enough to be read\n%%EOF\n"),
			rebuilder: &fakeRebuilder{},
			wantErr:   common.ErrUnsupportedDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.rebuilder, nil)
			res, err := d.Decrypt(context.Background(), tt.data, tt.password)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tt.rebuilder.passwords, "rebuild must not run when the password check fails")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantClass, res.Class)
			assert.Equal(t, tt.wantData, res.Data)
			assert.Equal(t, tt.wantEncrypted, res.WasEncrypted)
			assert.Len(t, tt.rebuilder.passwords, tt.wantRebuilds)
		})
	}
}

func TestProbe(t *testing.T) {
	locked := testutil.BuildEncryptedPDF(statementLines, testutil.PDFSecurity{UserPassword: "pw1234"})

	class, err := Probe(locked, "")
	assert.Equal(t, ClassUser, class)
	assert.ErrorIs(t, err, common.ErrPasswordRequired)

	class, err = Probe(locked, "pw1234")
	require.NoError(t, err)
	assert.Equal(t, ClassUser, class)

	class, err = Probe(testutil.BuildPDF(statementLines), "ignored")
	require.NoError(t, err)
	assert.Equal(t, ClassNone, class)
}

func TestClassifyRebuildError(t *testing.T) {
	assert.ErrorIs(t, classifyRebuildError(errors.New("please provide the correct password"), ""), common.ErrPasswordRequired)
	assert.ErrorIs(t, classifyRebuildError(errors.New("please provide the correct password"), "x"), common.ErrIncorrectPassword)
	assert.ErrorIs(t, classifyRebuildError(errors.New("xref corrupt"), "x"), common.ErrUnsupportedDocument)
}

func TestPDFCPURebuilder_CleansUpOnFailure(t *testing.T) {
	base := t.TempDir()
	b := NewPDFCPURebuilder(NewTempFileManager(base))

	_, err := b.Rebuild(context.Background(), []byte("not a pdf"), "")
	require.Error(t, err)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPDFCPURebuilder_CanceledContext(t *testing.T) {
	base := t.TempDir()
	b := NewPDFCPURebuilder(NewTempFileManager(base))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Rebuild(ctx, testutil.BuildPDF(statementLines), "")
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
