package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan/internal/featureset"
)

var tiny = featureset.FeatureSet{
	Domain:   "tiny",
	IDColumn: "id",
	Features: []string{"a", "b"},
}

func TestReadCSV_SelectsColumnsByName(t *testing.T) {
	in := "note,b,id,a\nx,2,e1,1\ny, 4 ,e2,3.5\n"
	b, err := ReadCSV(strings.NewReader(in), tiny)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, b.IDs)
	assert.Equal(t, [][]float64{{1, 2}, {3.5, 4}}, b.Rows)
	assert.Equal(t, []string{"a", "b"}, b.Features)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing column", "id,a\ne1,1\n", ErrColumnMismatch},
		{"empty cell", "id,a,b\ne1,1,\n", ErrNullFeature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), tiny)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ReadCSV(strings.NewReader(""), tiny)
	assert.Error(t, err, "empty input")

	_, err = ReadCSV(strings.NewReader("id,a,b\ne1,1,x\n"), tiny)
	assert.Error(t, err, "non-numeric")

	_, err = ReadCSV(strings.NewReader("id,a,b\ne1,1,2,3\n"), tiny)
	assert.Error(t, err, "ragged")
}

func TestCSVSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.csv"), []byte("id,a,b\ne1,1,2\n"), 0o644))

	b, err := CSVSource{Dir: dir}.Fetch(context.Background(), tiny)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	_, err = CSVSource{Dir: dir}.Fetch(context.Background(), featureset.Regions)
	assert.Error(t, err)
}
