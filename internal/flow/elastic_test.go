package flow

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElasticReadLine(t *testing.T) {
	t.Run("keeps the newline and reuses storage", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader("first\nsecond\n"))
		var e Elastic

		require.NoError(t, e.ReadLine(br))
		assert.Equal(t, "first\n", string(e.Bytes()))

		require.NoError(t, e.ReadLine(br))
		assert.Equal(t, "second\n", string(e.Bytes()))

		assert.Equal(t, io.EOF, e.ReadLine(br))
	})

	t.Run("final unterminated line is still a line", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader("tail"))
		var e Elastic
		require.NoError(t, e.ReadLine(br))
		assert.Equal(t, "tail", string(e.Bytes()))
		assert.Equal(t, io.EOF, e.ReadLine(br))
	})

	t.Run("lines longer than the bufio buffer", func(t *testing.T) {
		long := strings.Repeat("x", 100_000) + "\n"
		br := bufio.NewReaderSize(strings.NewReader(long), 16)
		var e Elastic
		require.NoError(t, e.ReadLine(br))
		assert.Equal(t, len(long), e.Len())
	})
}
