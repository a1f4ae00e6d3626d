package trackframe

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2021, 2, 1, 8, 30, 0, 0, time.UTC)

// sampleTimes returns n timestamps spaced step apart from the shared start.
func sampleTimes(n int, step time.Duration) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = testStart.Add(time.Duration(i) * step)
	}
	return out
}

func TestNewActivityRetypesAndWarns(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	raw.Set("ele", []float64{100, 101, 102})
	raw.Set("wind_kph", []float64{10, 11, 12})

	a, err := NewActivity(raw, ColumnSpecs{
		"ele": KindAltitude,
		"hr":  KindHeartRate,
	}, testStart)
	require.NoError(t, err)

	require.True(t, a.HasCol("alt"))
	require.False(t, a.HasCol("ele"))
	require.True(t, a.HasCol("wind_kph"))
	require.Equal(t, 3, a.Len())
	require.Equal(t, testStart, a.Start())

	require.Len(t, a.Warnings(), 1)
	require.Contains(t, a.Warnings()[0], `column "hr" not found`)

	alt, err := a.Col("alt")
	require.NoError(t, err)
	require.Equal(t, KindAltitude, alt.Kind())

	_, err = a.Col("hr")
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "hr", notFound.Column)
}

func TestNewActivityRejectsRaggedColumns(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, time.Second))
	raw.Set("hr", []float64{120, 121})

	_, err := NewActivity(raw, ColumnSpecs{"hr": KindHeartRate}, testStart)
	require.Error(t, err)
}

func TestNewActivityRejectsEmptyTable(t *testing.T) {
	_, err := NewActivity(NewRawTable(nil), nil, testStart)
	require.Error(t, err)
}

func TestIndexAndElapsedTime(t *testing.T) {
	raw := NewRawTable(sampleTimes(4, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	idx := a.Index()
	require.Equal(t, []time.Duration{0, 5 * time.Second, 10 * time.Second, 15 * time.Second}, idx)

	elapsed, err := a.ElapsedTime()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, elapsed)
}

func TestResetIndexForfeitsTimeAccessors(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	a.ResetIndex()

	timeCol, err := a.Col("time")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10}, timeCol.Values())

	var shapeErr *IndexShapeError
	_, err = a.ElapsedTime()
	require.ErrorAs(t, err, &shapeErr)
	_, err = a.MovingTime()
	require.ErrorAs(t, err, &shapeErr)
	_, err = a.Session()
	require.ErrorAs(t, err, &shapeErr)

	// Resetting twice is a no-op.
	a.ResetIndex()
	require.Equal(t, 3, a.Len())
}

func TestSetColReplacesByName(t *testing.T) {
	raw := NewRawTable(sampleTimes(2, time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	a.SetCol(NewHeartRate([]float64{120, 130}))
	a.SetCol(NewHeartRate([]float64{140, 150}))

	hr, err := a.Col("hr")
	require.NoError(t, err)
	assert.Equal(t, []float64{140, 150}, hr.Values())
	require.Equal(t, []string{"hr"}, a.Columns())
}

func TestDrop(t *testing.T) {
	raw := NewRawTable(sampleTimes(2, time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	a.SetCol(NewHeartRate([]float64{120, 130}))
	a.SetCol(NewCadence([]float64{80, 82}))
	a.Drop("hr")

	require.False(t, a.HasCol("hr"))
	cad, err := a.Col("cad")
	require.NoError(t, err)
	require.Equal(t, 2, cad.Len())
}

func TestDistancePrefersCumulativeColumn(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	_, err = a.Distance()
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)

	a.SetCol(NewDistancePerPosition([]float64{math.NaN(), 10, 20}))
	total, err := a.Distance()
	require.NoError(t, err)
	require.Equal(t, 30.0, total)

	a.SetCol(NewDistance([]float64{0, 10, 30}))
	total, err = a.Distance()
	require.NoError(t, err)
	require.Equal(t, 30.0, total)
}

func TestMovingTime(t *testing.T) {
	raw := NewRawTable(sampleTimes(4, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)

	_, err = a.MovingTime()
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "moving", notFound.Column)

	a.SetCol(NewMoving([]bool{true, true, false, true}))
	moving, err := a.MovingTime()
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, moving)
}

func TestMeanSpeedSmoothingVsDistanceOverTime(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewSpeed([]float64{2, 4, 4}))
	a.SetCol(NewDistance([]float64{0, 10, 20}))

	smoothed, err := a.MeanSpeed(false, true)
	require.NoError(t, err)
	require.InDelta(t, 4.0, smoothed, 1e-12)

	plain, err := a.MeanSpeed(false, false)
	require.NoError(t, err)
	require.InDelta(t, 2.0, plain, 1e-12)
}

func TestMeanSpeedOnlyMoving(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewSpeed([]float64{0, 3, 5}))
	a.SetCol(NewMoving([]bool{false, true, true}))

	got, err := a.MeanSpeed(true, true)
	require.NoError(t, err)
	require.InDelta(t, 4.0, got, 1e-12)
}

func TestMeanPace(t *testing.T) {
	raw := NewRawTable(sampleTimes(3, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewSpeed([]float64{2, 2, 2}))

	pace, err := a.MeanPace(false, true)
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, pace)
}

func TestMeanHeartRateAndCadence(t *testing.T) {
	raw := NewRawTable(sampleTimes(4, time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewHeartRate([]float64{120, 140, math.NaN(), 160}))
	a.SetCol(NewCadence([]float64{80, 84, 88, 92}))
	a.SetCol(NewMoving([]bool{false, true, true, true}))

	hr, err := a.MeanHeartRate(false)
	require.NoError(t, err)
	require.InDelta(t, 140, hr, 1e-12)

	hrMoving, err := a.MeanHeartRate(true)
	require.NoError(t, err)
	require.InDelta(t, 150, hrMoving, 1e-12)

	cad, err := a.MeanCadence(true)
	require.NoError(t, err)
	require.InDelta(t, 88, cad, 1e-12)
}

func TestCopyIsDeep(t *testing.T) {
	raw := NewRawTable(sampleTimes(2, time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewHeartRate([]float64{120, 130}))

	clone := a.Copy()
	clone.SetCol(NewHeartRate([]float64{0, 0}))

	hr, err := a.Col("hr")
	require.NoError(t, err)
	assert.Equal(t, []float64{120, 130}, hr.Values())
}

func TestSlice(t *testing.T) {
	raw := NewRawTable(sampleTimes(4, 5*time.Second))
	a, err := NewActivity(raw, nil, testStart)
	require.NoError(t, err)
	a.SetCol(NewHeartRate([]float64{120, 130, 140, 150}))

	sub := a.Slice(1, 3)
	require.Equal(t, 2, sub.Len())
	hr, err := sub.Col("hr")
	require.NoError(t, err)
	assert.Equal(t, []float64{130, 140}, hr.Values())
	require.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, sub.Index())
}
