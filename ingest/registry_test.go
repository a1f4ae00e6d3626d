package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trackframe"
)

func TestRegistryBuiltinFormats(t *testing.T) {
	r := NewRegistry()
	require.ElementsMatch(t, []string{".tcx", ".gpx", ".fit"}, r.Formats())
}

func TestRegistryUnsupportedExtension(t *testing.T) {
	_, err := NewRegistry().ReadFile("workout.csv")
	require.Error(t, err)
	require.Contains(t, err.Error(), `".csv"`)
}

func TestRegistryReadFileDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.TCX")
	require.NoError(t, os.WriteFile(path, []byte(tcxDoc), 0o644))

	// Extension matching is case-insensitive.
	a, err := NewRegistry().ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, a.Len())
}

func TestRegistryCustomReader(t *testing.T) {
	r := NewRegistry()
	r.Register(".trk", func(path string) (*trackframe.Activity, error) {
		return ParseGPX([]byte(gpxDoc))
	})

	a, err := r.ReadFile("anything.trk")
	require.NoError(t, err)
	require.True(t, a.HasCol("hr"))
}
