package ingest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSemicircleDegrees(t *testing.T) {
	require.True(t, math.IsNaN(semicircleDegrees(math.MaxInt32)))
	require.InDelta(t, 90, semicircleDegrees(1073741824), 1e-9)
	require.InDelta(t, -90, semicircleDegrees(-1073741824), 1e-9)
	require.InDelta(t, 0, semicircleDegrees(0), 1e-9)
}

func TestInvalidSentinels(t *testing.T) {
	require.True(t, math.IsNaN(invalidUint8(math.MaxUint8)))
	require.Equal(t, 180.0, invalidUint8(180))

	require.True(t, math.IsNaN(invalidUint16(math.MaxUint16)))
	require.Equal(t, 250.0, invalidUint16(250))

	require.True(t, math.IsNaN(invalidInt8(math.MaxInt8)))
	require.Equal(t, -5.0, invalidInt8(-5))
}

func TestParseFITRejectsGarbage(t *testing.T) {
	_, err := ParseFIT([]byte("definitely not a fit file"))
	var invalid *InvalidFileError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "fit", invalid.Format)
}

func TestParseFITRejectsEmpty(t *testing.T) {
	_, err := ParseFIT(nil)
	var invalid *InvalidFileError
	require.ErrorAs(t, err, &invalid)
}
