package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCIIGridRoundTrip(t *testing.T) {
	region := testRegion(3, 4)
	src := NewGrid(region)
	src.Set(0, 0, 10)
	src.Set(1, 2, 42.5)
	src.Set(2, 3, -3)

	path := filepath.Join(t.TempDir(), "layer.asc")
	require.NoError(t, WriteASCIIGrid(path, src))

	got, err := ReadASCIIGrid(path)
	require.NoError(t, err)
	require.Equal(t, region, got.Region())

	for r := 0; r < region.Rows; r++ {
		for c := 0; c < region.Cols; c++ {
			if src.IsNull(r, c) {
				assert.True(t, got.IsNull(r, c), "cell (%d,%d)", r, c)
			} else {
				assert.Equal(t, src.At(r, c), got.At(r, c), "cell (%d,%d)", r, c)
			}
		}
	}
}

func TestReadASCIIGridCustomNodata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layer.asc")
	content := "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 10\nnodata_value 255\n1 255\n255 4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	g, err := ReadASCIIGrid(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.At(0, 0))
	assert.True(t, g.IsNull(0, 1))
	assert.True(t, g.IsNull(1, 0))
	assert.Equal(t, 4.0, g.At(1, 1))
}

func TestReadASCIIGridDefaultNodata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layer.asc")
	content := "ncols 2\nnrows 1\nxllcorner 100\nyllcorner 200\ncellsize 25\n-9999 7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	g, err := ReadASCIIGrid(path)
	require.NoError(t, err)
	assert.True(t, g.IsNull(0, 0))
	assert.Equal(t, 7.0, g.At(0, 1))
	assert.Equal(t, 25.0, g.Region().CellSize)
	assert.Equal(t, 100.0, g.Region().West)
}

func TestReadASCIIGridErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing header", content: "ncols 2\n1 2\n"},
		{name: "bad cell", content: "ncols 1\nnrows 1\ncellsize 10\nxyz\n"},
		{name: "wrong cell count", content: "ncols 2\nnrows 2\ncellsize 10\n1 2 3\n"},
		{name: "empty", content: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.asc")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			_, err := ReadASCIIGrid(path)
			assert.Error(t, err)
		})
	}

	_, err := ReadASCIIGrid(filepath.Join(dir, "does-not-exist.asc"))
	assert.Error(t, err)
}
