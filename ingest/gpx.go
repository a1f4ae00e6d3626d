package ingest

import (
	"encoding/xml"
	"math"
	"os"
	"time"

	"github.com/lucasjlepore/trackframe"
)

var gpxColumnSpecs = trackframe.ColumnSpecs{
	"lat": trackframe.KindLatitude,
	"lon": trackframe.KindLongitude,
	"ele": trackframe.KindAltitude,
	"hr":  trackframe.KindHeartRate,
	"cad": trackframe.KindCadence,
}

type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat        float64        `xml:"lat,attr"`
	Lon        float64        `xml:"lon,attr"`
	Ele        *float64       `xml:"ele"`
	Time       string         `xml:"time"`
	Extensions *gpxExtensions `xml:"extensions"`
}

// Garmin TrackPointExtension; the tags match local names, so the
// namespace prefix in the source document does not matter.
type gpxExtensions struct {
	HR  *float64 `xml:"TrackPointExtension>hr"`
	Cad *float64 `xml:"TrackPointExtension>cad"`
}

// ReadGPX parses a GPX track file into an activity table.
func ReadGPX(path string) (*trackframe.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGPX(data)
}

// ParseGPX parses GPX document bytes into an activity table.
func ParseGPX(data []byte) (*trackframe.Activity, error) {
	var doc gpxFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidFileError{Format: "gpx", Reason: err.Error()}
	}

	var points []gpxPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			points = append(points, seg.Points...)
		}
	}
	if len(points) == 0 {
		return nil, &InvalidFileError{Format: "gpx", Reason: "no trackpoints"}
	}

	times := make([]time.Time, len(points))
	lat := make([]float64, len(points))
	lon := make([]float64, len(points))
	ele := make([]float64, len(points))
	hr := make([]float64, len(points))
	cad := make([]float64, len(points))

	for i, pt := range points {
		ts, err := time.Parse(time.RFC3339, pt.Time)
		if err != nil {
			return nil, &InvalidFileError{Format: "gpx", Reason: "bad trackpoint time: " + err.Error()}
		}
		times[i] = ts
		lat[i], lon[i] = pt.Lat, pt.Lon
		ele[i] = deref(pt.Ele)
		hr[i], cad[i] = math.NaN(), math.NaN()
		if pt.Extensions != nil {
			hr[i] = deref(pt.Extensions.HR)
			cad[i] = deref(pt.Extensions.Cad)
		}
	}

	raw := trackframe.NewRawTable(times)
	raw.Set("lat", lat)
	raw.Set("lon", lon)
	setIfAny(raw, "ele", ele)
	setIfAny(raw, "hr", hr)
	setIfAny(raw, "cad", cad)

	return trackframe.NewActivity(raw, gpxColumnSpecs, times[0])
}
