package binio

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteInt32(-42)
	w.WriteUint64(1 << 40)
	w.WriteFloat64(3.25)
	w.WriteString("héllo")
	w.WriteString("")
	require.NoError(t, w.Err())

	r := NewReader(&buf)
	assert.True(t, r.ReadBool())
	assert.False(t, r.ReadBool())
	assert.Equal(t, int32(-42), r.ReadInt32())
	assert.Equal(t, uint64(1<<40), r.ReadUint64())
	assert.Equal(t, 3.25, r.ReadFloat64())
	assert.Equal(t, "héllo", r.ReadString())
	assert.Equal(t, "", r.ReadString())
	require.NoError(t, r.Err())
	assert.Zero(t, buf.Len())
}

func TestLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBool(true)
	w.WriteInt32(2)
	w.WriteString("ab")
	require.NoError(t, w.Err())

	// bool is one byte, int32 little-endian, string is length plus bytes.
	assert.Equal(t, []byte{1, 2, 0, 0, 0, 2, 0, 0, 0, 'a', 'b'}, buf.Bytes())
}

func TestReaderStickyError(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1}))
	assert.True(t, r.ReadBool())
	assert.False(t, r.ReadBool())
	require.ErrorIs(t, r.Err(), io.EOF)

	// Everything after the first failure is a zero value.
	assert.Equal(t, int32(0), r.ReadInt32())
	assert.Equal(t, "", r.ReadString())
	assert.ErrorIs(t, r.Err(), io.EOF)
}

func TestReadStringRejectsNegativeLength(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteInt32(-1)
	require.NoError(t, w.Err())

	r := NewReader(&buf)
	assert.Equal(t, "", r.ReadString())
	assert.ErrorContains(t, r.Err(), "invalid string length")
}

func TestReadStringTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteInt32(10)
	buf.WriteString("abc")

	r := NewReader(&buf)
	assert.Equal(t, "", r.ReadString())
	assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

type failingWriter struct{ err error }

func (f *failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestWriterStickyError(t *testing.T) {
	boom := errors.New("boom")
	w := NewWriter(&failingWriter{err: boom})
	w.WriteInt32(1)
	w.WriteString("ignored")
	assert.ErrorIs(t, w.Err(), boom)
}
