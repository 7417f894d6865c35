package parse

// input.go cleans raw upload bytes before they reach the CSV reader:
//
//   - BOMReader drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Excel
//   - CountingReader tracks bytes read for progress reporting
//   - DecodeText re-decodes non-UTF-8 exports as Windows-1252 so names such
//     as "Peña" survive instead of turning into replacement characters

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMReader struct {
	reader  io.Reader
	checked bool
	head    []byte
}

// NewBOMReader creates a new BOM-skipping reader.
func NewBOMReader(r io.Reader) *BOMReader {
	return &BOMReader{reader: r}
}

// Read implements io.Reader. The first call inspects up to three bytes.
func (r *BOMReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		buf := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(r.reader, buf)
		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			// Short input: whatever was read is data unless it is exactly the BOM.
		case err != nil:
			return 0, err
		}
		if !bytes.Equal(buf[:n], utf8BOM) {
			r.head = buf[:n]
		}
	}

	if len(r.head) > 0 {
		n := copy(p, r.head)
		r.head = r.head[n:]
		return n, nil
	}
	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown

	// OnProgress, if set, is called whenever Progress changes.
	OnProgress func(percent int)
	last       int
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.OnProgress != nil {
		if pct := r.Progress(); pct != r.last {
			r.last = pct
			r.OnProgress(pct)
		}
	}
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	p := int(r.BytesRead * 100 / r.Total)
	if p > 100 {
		return 100
	}
	return p
}

// DecodeText returns data unchanged when it is valid UTF-8 and otherwise
// decodes it as Windows-1252, the default code page of spreadsheet exports.
func DecodeText(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return bytes.ToValidUTF8(data, []byte("�"))
	}
	return out
}
