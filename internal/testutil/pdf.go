package testutil

import (
	"bytes"
	"crypto/md5" //nolint:gosec // PDF standard security handler mandates MD5
	"crypto/rc4" //nolint:gosec // PDF standard security handler mandates RC4
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

var pdfPasswordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// PDFSecurity describes RC4 40-bit (V1/R2) standard security for a generated PDF.
type PDFSecurity struct {
	UserPassword  string
	OwnerPassword string
}

// BuildPDF returns a single-page PDF that draws each line with a monospaced font,
// one line per baseline from the top of the page.
func BuildPDF(lines []string) []byte {
	return buildPDF(lines, nil)
}

// BuildEncryptedPDF returns the same document protected with the given passwords.
// An empty user password produces an owner-restricted document that opens without a password.
func BuildEncryptedPDF(lines []string, sec PDFSecurity) []byte {
	return buildPDF(lines, &sec)
}

func buildPDF(lines []string, sec *PDFSecurity) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 10 Tf\n")
	for i, line := range lines {
		fmt.Fprintf(&content, "1 0 0 1 50 %d Tm\n(%s) Tj\n", 750-i*14, escapePDFString(line))
	}
	content.WriteString("ET\n")
	stream := []byte(content.String())

	widths := make([]string, 0, 95)
	for c := 32; c <= 126; c++ {
		widths = append(widths, "600")
	}

	id := md5.Sum([]byte("finagent-fixture")) //nolint:gosec // fixed document ID

	var key, o, u []byte
	if sec != nil {
		key, o, u = standardSecurity(sec, id[:])
		stream = rc4Crypt(objectKey(key, 5, 0), stream)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + strings.Join(widths, " ") + "] >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}
	if sec != nil {
		objects = append(objects, fmt.Sprintf("<< /Filter /Standard /V 1 /R 2 /O <%s> /U <%s> /P -4 >>",
			hex.EncodeToString(o), hex.EncodeToString(u)))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", len(objects)+1)
	if sec != nil {
		idHex := hex.EncodeToString(id[:])
		trailer += fmt.Sprintf(" /Encrypt %d 0 R /ID [<%s> <%s>]", len(objects), idHex, idHex)
	}
	trailer += " >>"
	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xref)

	return buf.Bytes()
}

// standardSecurity computes the file key and the O and U entries for revision 2.
func standardSecurity(sec *PDFSecurity, id []byte) (key, o, u []byte) {
	owner := sec.OwnerPassword
	if owner == "" {
		owner = sec.UserPassword
	}

	ownerHash := md5.Sum(padPassword(owner)) //nolint:gosec // mandated by the format
	o = rc4Crypt(ownerHash[:5], padPassword(sec.UserPassword))

	h := md5.New() //nolint:gosec // mandated by the format
	h.Write(padPassword(sec.UserPassword))
	h.Write(o)
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, uint32(0xFFFFFFFC))
	h.Write(p)
	h.Write(id)
	key = h.Sum(nil)[:5]

	u = rc4Crypt(key, pdfPasswordPad)
	return key, o, u
}

func objectKey(key []byte, id, gen int) []byte {
	h := md5.New() //nolint:gosec // mandated by the format
	h.Write(key)
	h.Write([]byte{byte(id), byte(id >> 8), byte(id >> 16), byte(gen), byte(gen >> 8)})
	return h.Sum(nil)[:len(key)+5]
}

func padPassword(pw string) []byte {
	out := make([]byte, 32)
	n := copy(out, pw)
	copy(out[n:], pdfPasswordPad)
	return out
}

func rc4Crypt(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
