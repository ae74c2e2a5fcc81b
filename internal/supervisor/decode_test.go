package supervisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLineWriter_SplitsAcrossWrites verifies lines spanning several writes
// are reassembled and the unterminated tail is kept for the caller.
func TestLineWriter_SplitsAcrossWrites(t *testing.T) {
	out := make(chan rawLine, 10)
	w := newLineWriter(StreamStderr, out, make(chan struct{}))

	for _, chunk := range []string{"fir", "st\nsec", "ond\r\nthi", "rd"} {
		n, err := w.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	close(out)

	var got []string
	for l := range out {
		assert.Equal(t, StreamStderr, l.stream)
		got = append(got, string(l.data))
	}
	assert.Equal(t, []string{"first", "second\r"}, got)
	assert.Equal(t, "third", string(w.remainder()))
	assert.Nil(t, w.remainder())
}

// TestLineWriter_LongLine splits output that never contains a newline.
func TestLineWriter_LongLine(t *testing.T) {
	out := make(chan rawLine, 10)
	w := newLineWriter(StreamStdout, out, make(chan struct{}))

	_, err := w.Write([]byte(strings.Repeat("x", maxLineBytes+10)))
	require.NoError(t, err)
	close(out)

	l := <-out
	assert.Len(t, l.data, maxLineBytes)
	assert.Len(t, w.remainder(), 10)
}

// TestLineWriter_DoneUnblocks verifies writes are dropped once the job has
// ended instead of blocking forever.
func TestLineWriter_DoneUnblocks(t *testing.T) {
	done := make(chan struct{})
	close(done)
	w := newLineWriter(StreamStdout, make(chan rawLine), done)

	n, err := w.Write([]byte("late line\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

// TestDecodeLine covers carriage-return trimming and replacement of
// invalid bytes.
func TestDecodeLine(t *testing.T) {
	enc, err := LookupEncoding("")
	require.NoError(t, err)
	dec := enc.NewDecoder()

	assert.Equal(t, "plain", decodeLine(dec, []byte("plain\r")))
	assert.Equal(t, "a\uFFFDb", decodeLine(dec, []byte("a\xffb")))

	gbk, err := LookupEncoding("gbk")
	require.NoError(t, err)
	assert.Equal(t, "中文", decodeLine(gbk.NewDecoder(), []byte{0xd6, 0xd0, 0xce, 0xc4}))
}
