package trackframe

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildSummaryNaNSentinels(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	s := BuildSummary(a)

	require.Equal(t, "Running: 01-02-2021 08:30:00", s.Session)
	require.Equal(t, testStart, s.Start)
	require.Equal(t, 10.0, s.ElapsedSeconds)

	// Everything depending on an absent column is NaN, never an error.
	require.True(t, math.IsNaN(s.TotalDistanceM))
	require.True(t, math.IsNaN(s.MovingSeconds))
	require.True(t, math.IsNaN(s.AvgSpeedKmh))
	require.True(t, math.IsNaN(s.AvgPaceSecPerKm))
	require.True(t, math.IsNaN(s.AvgCadence))
	require.True(t, math.IsNaN(s.AvgHeartRate))
	require.True(t, math.IsNaN(s.AvgTemperature))
}

func TestBuildSummaryPopulated(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewDistance([]float64{0, 10, 20}))
	a.SetCol(NewSpeed([]float64{2, 2, 2}))
	a.SetCol(NewMoving([]bool{true, true, true}))
	a.SetCol(NewHeartRate([]float64{120, 130, 140}))
	a.SetCol(NewCadence([]float64{80, 84, 88}))
	a.SetCol(NewTemperature([]float64{20, 21, 22}))

	s := BuildSummary(a)

	require.Equal(t, 20.0, s.TotalDistanceM)
	require.Equal(t, 10.0, s.ElapsedSeconds)
	require.Equal(t, 10.0, s.MovingSeconds)
	require.InDelta(t, 7.2, s.AvgSpeedKmh, 1e-9)
	require.InDelta(t, 500, s.AvgPaceSecPerKm, 1e-9)
	require.InDelta(t, 7.2, s.AvgMovingSpeedKmh, 1e-9)
	require.InDelta(t, 130, s.AvgHeartRate, 1e-9)
	require.InDelta(t, 84, s.AvgCadence, 1e-9)
	require.InDelta(t, 21, s.AvgTemperature, 1e-9)
}

func TestBuildSummaryAfterResetNeverErrors(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.ResetIndex()

	s := BuildSummary(a)
	require.True(t, math.IsNaN(s.ElapsedSeconds))
	require.True(t, math.IsNaN(s.MovingSeconds))
}

func TestSummaryStringRendersMissingAsNA(t *testing.T) {
	raw := NewRawTable(sampleTimes(2, time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	out := BuildSummary(a).String()
	require.Contains(t, out, "Session: Running: 01-02-2021 08:30:00")
	require.Contains(t, out, "Total distance:       n/a")
	require.Contains(t, out, "Total elapsed time:   1s")
	require.Contains(t, out, "Average heart rate:   n/a")
}

func TestSummaryStringRendersValues(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewDistance([]float64{0, 10, 20}))
	a.SetCol(NewSpeed([]float64{2, 2, 2}))
	a.SetCol(NewMoving([]bool{true, true, true}))

	out := BuildSummary(a).String()
	require.Contains(t, out, "Total distance:       20.0 m")
	require.Contains(t, out, "7.20 km/h")
	require.Contains(t, out, "8:20")
}
