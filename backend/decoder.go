package backend

import (
	"errors"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder reassembles records from arbitrarily split byte chunks.
//
// Bytes are decoded as UTF-8 incrementally: an incomplete multi-byte
// sequence at the end of a chunk is held back until the next chunk completes
// it, and invalid bytes become U+FFFD exactly as a single-shot decode of the
// whole stream would produce. Decoded text is split into lines; a line is a
// record when it starts with DataPrefix. The last, possibly incomplete, line
// stays buffered. Feeding any partition of a stream yields the same records
// as feeding it whole.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	utf8    *encoding.Decoder
	pending []byte          // undecoded bytes: an incomplete UTF-8 sequence
	line    strings.Builder // decoded text after the last line terminator
}

// NewDecoder creates an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{utf8: unicode.UTF8.NewDecoder()}
}

// Feed decodes chunk and returns the records it completed, in order.
func (d *Decoder) Feed(chunk []byte) []string {
	text := d.decode(chunk, false)

	var records []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		d.line.WriteString(text[:i])
		if rec, ok := record(d.line.String()); ok {
			records = append(records, rec)
		}
		d.line.Reset()
		text = text[i+1:]
	}
	d.line.WriteString(text)
	return records
}

// Flush ends the stream. It returns a final record when the unterminated
// remainder is one, and clears all buffered state.
func (d *Decoder) Flush() (string, bool) {
	d.line.WriteString(d.decode(nil, true))
	rest := d.line.String()
	d.line.Reset()
	if rest == "" {
		return "", false
	}
	return record(rest)
}

// Buffered returns the decoded text not yet resolved into a record. Bytes of
// an incomplete UTF-8 sequence are not included.
func (d *Decoder) Buffered() string {
	return d.line.String()
}

// decode converts src, preceded by any held-back bytes, to text. Unless
// atEOF, a trailing incomplete sequence is held back for the next call.
func (d *Decoder) decode(src []byte, atEOF bool) string {
	if len(d.pending) > 0 {
		src = append(d.pending, src...)
		d.pending = nil
	}
	if len(src) == 0 {
		return ""
	}
	// Each source byte decodes to at most one U+FFFD (3 bytes).
	dst := make([]byte, 3*len(src))
	nDst, nSrc, err := d.utf8.Transform(dst, src, atEOF)
	switch {
	case err == nil:
	case errors.Is(err, transform.ErrShortSrc):
		d.pending = append([]byte(nil), src[nSrc:]...)
	default:
		// Not expected from the UTF-8 decoder; keep the text rather than
		// dropping stream data.
		return string(dst[:nDst]) + strings.ToValidUTF8(string(src[nSrc:]), "\uFFFD")
	}
	return string(dst[:nDst])
}

// record extracts the payload of a data line. A trailing carriage return is
// stripped, as is one space after the prefix.
func record(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	payload, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(payload, " "), true
}
