package supervisor

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// maxLineBytes bounds a single line; longer runs without a newline are
// emitted in pieces.
const maxLineBytes = 64 * 1024

// LookupEncoding resolves a WHATWG encoding label such as "utf-8", "gbk" or
// "windows-1252". An empty label means UTF-8.
func LookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown output encoding %q: %w", label, err)
	}
	return enc, nil
}

// decodeLine converts raw child output to a valid UTF-8 string. Invalid
// sequences become U+FFFD; decoding never fails.
func decodeLine(dec *encoding.Decoder, raw []byte) string {
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	out, err := dec.Bytes(raw)
	if err != nil {
		out = raw
	}
	return strings.ToValidUTF8(string(out), "\uFFFD")
}

type rawLine struct {
	stream Stream
	data   []byte
}

// lineWriter splits a stream into lines and hands them to the job loop.
// exec's copy goroutine is the only caller of Write; remainder is read by
// the loop only after Wait has returned.
type lineWriter struct {
	stream Stream
	out    chan<- rawLine
	done   <-chan struct{}
	buf    []byte
}

func newLineWriter(stream Stream, out chan<- rawLine, done <-chan struct{}) *lineWriter {
	return &lineWriter{stream: stream, out: out, done: done}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	start := 0
	for {
		i := bytes.IndexByte(w.buf[start:], '\n')
		if i < 0 {
			break
		}
		w.send(w.buf[start : start+i])
		start += i + 1
	}
	if start > 0 {
		w.buf = append(w.buf[:0], w.buf[start:]...)
	}
	for len(w.buf) >= maxLineBytes {
		w.send(w.buf[:maxLineBytes])
		w.buf = append(w.buf[:0], w.buf[maxLineBytes:]...)
	}
	return len(p), nil
}

func (w *lineWriter) send(data []byte) {
	line := rawLine{stream: w.stream, data: bytes.Clone(data)}
	select {
	case w.out <- line:
	case <-w.done:
	}
}

// remainder returns any trailing bytes not terminated by a newline.
func (w *lineWriter) remainder() []byte {
	if len(w.buf) == 0 {
		return nil
	}
	rest := w.buf
	w.buf = nil
	return rest
}
