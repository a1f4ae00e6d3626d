package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trackframe"
)

const tcxDoc = `<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2">
  <Activities>
    <Activity Sport="Running">
      <Lap StartTime="2021-02-01T08:30:00Z">
        <Track>
          <Trackpoint>
            <Time>2021-02-01T08:30:00Z</Time>
            <Position>
              <LatitudeDegrees>51.0</LatitudeDegrees>
              <LongitudeDegrees>4.0</LongitudeDegrees>
            </Position>
            <AltitudeMeters>12.5</AltitudeMeters>
            <DistanceMeters>0</DistanceMeters>
            <HeartRateBpm><Value>121</Value></HeartRateBpm>
            <Extensions><TPX><Speed>2.5</Speed></TPX></Extensions>
          </Trackpoint>
          <Trackpoint>
            <Time>2021-02-01T08:30:05Z</Time>
            <Position>
              <LatitudeDegrees>51.0001</LatitudeDegrees>
              <LongitudeDegrees>4.0001</LongitudeDegrees>
            </Position>
            <AltitudeMeters>13.0</AltitudeMeters>
            <DistanceMeters>13.2</DistanceMeters>
            <HeartRateBpm><Value>124</Value></HeartRateBpm>
            <Extensions><TPX><Speed>2.6</Speed></TPX></Extensions>
          </Trackpoint>
        </Track>
      </Lap>
    </Activity>
  </Activities>
</TrainingCenterDatabase>`

func TestParseTCX(t *testing.T) {
	a, err := ParseTCX([]byte(tcxDoc))
	require.NoError(t, err)

	require.Equal(t, 2, a.Len())
	require.Equal(t, time.Date(2021, 2, 1, 8, 30, 0, 0, time.UTC), a.Start())

	lat, err := a.Col("lat")
	require.NoError(t, err)
	require.Equal(t, trackframe.KindLatitude, lat.Kind())
	require.InDelta(t, 51.0, lat.Values()[0], 1e-12)

	for _, name := range []string{"lon", "alt", "dist", "hr", "speed"} {
		require.True(t, a.HasCol(name), "missing column %q", name)
	}

	hr, err := a.Col("hr")
	require.NoError(t, err)
	require.Equal(t, []float64{121, 124}, hr.Values())
}

func TestParseTCXWarnsOnAbsentSensors(t *testing.T) {
	a, err := ParseTCX([]byte(tcxDoc))
	require.NoError(t, err)

	// No cadence or power in the document, so those spec'd columns warn.
	require.False(t, a.HasCol("cad"))
	require.False(t, a.HasCol("pwr"))
	require.NotEmpty(t, a.Warnings())
}

func TestParseTCXWrongRoot(t *testing.T) {
	_, err := ParseTCX([]byte(`<?xml version="1.0"?><gpx></gpx>`))
	var invalid *InvalidFileError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "tcx", invalid.Format)
}

func TestParseTCXNoTrackpoints(t *testing.T) {
	doc := `<TrainingCenterDatabase><Activities><Activity Sport="Running"/></Activities></TrainingCenterDatabase>`
	_, err := ParseTCX([]byte(doc))
	var invalid *InvalidFileError
	require.ErrorAs(t, err, &invalid)
}

func TestParseTCXBadTime(t *testing.T) {
	doc := `<TrainingCenterDatabase><Activities><Activity><Lap><Track>
	<Trackpoint><Time>not-a-time</Time></Trackpoint>
	</Track></Lap></Activity></Activities></TrainingCenterDatabase>`
	_, err := ParseTCX([]byte(doc))
	var invalid *InvalidFileError
	require.ErrorAs(t, err, &invalid)
}
