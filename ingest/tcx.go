package ingest

import (
	"encoding/xml"
	"math"
	"os"
	"time"

	"github.com/lucasjlepore/trackframe"
)

// Garmin TCX stores all times in UTC; files in the wild may carry
// fractional seconds despite what the schema says.
const tcxTimeLayout = time.RFC3339

var tcxColumnSpecs = trackframe.ColumnSpecs{
	"altitude_meters":   trackframe.KindAltitude,
	"cadence":           trackframe.KindCadence,
	"distance_meters":   trackframe.KindDistance,
	"heart_rate_bpm":    trackframe.KindHeartRate,
	"latitude_degrees":  trackframe.KindLatitude,
	"longitude_degrees": trackframe.KindLongitude,
	"speed":             trackframe.KindSpeed,
	"watts":             trackframe.KindPower,
}

type tcxFile struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	Trackpoints []tcxTrackpoint `xml:"Track>Trackpoint"`
}

type tcxTrackpoint struct {
	Time      string       `xml:"Time"`
	Position  *tcxPosition `xml:"Position"`
	Altitude  *float64     `xml:"AltitudeMeters"`
	Distance  *float64     `xml:"DistanceMeters"`
	HeartRate *tcxValue    `xml:"HeartRateBpm"`
	Cadence   *float64     `xml:"Cadence"`
	TPX       *tcxTPX      `xml:"Extensions>TPX"`
}

type tcxPosition struct {
	Lat float64 `xml:"LatitudeDegrees"`
	Lon float64 `xml:"LongitudeDegrees"`
}

type tcxValue struct {
	Value float64 `xml:"Value"`
}

type tcxTPX struct {
	Speed *float64 `xml:"Speed"`
	Watts *float64 `xml:"Watts"`
}

// ReadTCX parses a Garmin Training Center file into an activity table.
func ReadTCX(path string) (*trackframe.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTCX(data)
}

// ParseTCX parses TCX document bytes into an activity table.
func ParseTCX(data []byte) (*trackframe.Activity, error) {
	var doc tcxFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidFileError{Format: "tcx", Reason: err.Error()}
	}

	var points []tcxTrackpoint
	for _, act := range doc.Activities {
		for _, lap := range act.Laps {
			points = append(points, lap.Trackpoints...)
		}
	}
	if len(points) == 0 {
		return nil, &InvalidFileError{Format: "tcx", Reason: "no trackpoints"}
	}

	times := make([]time.Time, len(points))
	lat := make([]float64, len(points))
	lon := make([]float64, len(points))
	alt := make([]float64, len(points))
	dist := make([]float64, len(points))
	hr := make([]float64, len(points))
	cad := make([]float64, len(points))
	speed := make([]float64, len(points))
	watts := make([]float64, len(points))

	for i, pt := range points {
		ts, err := time.Parse(tcxTimeLayout, pt.Time)
		if err != nil {
			return nil, &InvalidFileError{Format: "tcx", Reason: "bad trackpoint time: " + err.Error()}
		}
		times[i] = ts
		lat[i], lon[i] = math.NaN(), math.NaN()
		if pt.Position != nil {
			lat[i], lon[i] = pt.Position.Lat, pt.Position.Lon
		}
		alt[i] = deref(pt.Altitude)
		dist[i] = deref(pt.Distance)
		cad[i] = deref(pt.Cadence)
		hr[i] = math.NaN()
		if pt.HeartRate != nil {
			hr[i] = pt.HeartRate.Value
		}
		speed[i], watts[i] = math.NaN(), math.NaN()
		if pt.TPX != nil {
			speed[i] = deref(pt.TPX.Speed)
			watts[i] = deref(pt.TPX.Watts)
		}
	}

	raw := trackframe.NewRawTable(times)
	setIfAny(raw, "latitude_degrees", lat)
	setIfAny(raw, "longitude_degrees", lon)
	setIfAny(raw, "altitude_meters", alt)
	setIfAny(raw, "distance_meters", dist)
	setIfAny(raw, "heart_rate_bpm", hr)
	setIfAny(raw, "cadence", cad)
	setIfAny(raw, "speed", speed)
	setIfAny(raw, "watts", watts)

	return trackframe.NewActivity(raw, tcxColumnSpecs, times[0])
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// setIfAny drops columns the source omitted entirely, so the table only
// warns about sensors that are genuinely absent.
func setIfAny(raw *trackframe.RawTable, name string, values []float64) {
	for _, v := range values {
		if !math.IsNaN(v) {
			raw.Set(name, values)
			return
		}
	}
}
