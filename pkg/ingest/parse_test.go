package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	t.Run("headers and rows", func(t *testing.T) {
		file, err := ParseCSV(strings.NewReader("a,b,c\n1,2,3\n4,5,6\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, file.Headers)
		assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, file.Rows)
	})

	t.Run("blank rows skipped", func(t *testing.T) {
		file, err := ParseCSV(strings.NewReader("a,b\n\n1,2\n , \n3,4\n"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, file.Rows)
	})

	t.Run("ragged rows kept", func(t *testing.T) {
		file, err := ParseCSV(strings.NewReader("a,b,c\n1,2\n1,2,3,4\n"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"1", "2"}, {"1", "2", "3", "4"}}, file.Rows)
	})

	t.Run("BOM stripped from first header", func(t *testing.T) {
		file, err := ParseCSV(strings.NewReader("\uFEFFa,b\n1,2\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, file.Headers)
	})

	t.Run("empty file rejected", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("only blank lines rejected", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("\n\n  ,  \n"))
		require.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		file, err := ParseCSV(strings.NewReader("a,b\n"))
		require.NoError(t, err)
		assert.Empty(t, file.Rows)
	})

	t.Run("quoted fields", func(t *testing.T) {
		file, err := ParseCSV(strings.NewReader("a,b\n\"x, y\",\"line\nbreak\"\n"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"x, y", "line\nbreak"}}, file.Rows)
	})
}
