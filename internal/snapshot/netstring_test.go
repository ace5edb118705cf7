package snapshot

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetstring_WriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	records := [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`), []byte("")}
	for _, rec := range records {
		require.NoError(t, writeRecord(&buf, rec))
	}

	r := bufio.NewReader(&buf)
	for _, want := range records {
		got, err := readRecord(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := readRecord(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNetstring_TrailingPartialRecordDiscarded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecord(&buf, []byte(`{"a":1}`)))
	buf.WriteString("5:abc") // truncated record: declares 5 bytes, has 3

	r := bufio.NewReader(&buf)
	first, err := readRecord(r)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), first)

	_, err = readRecord(r)
	assert.Error(t, err)
}
