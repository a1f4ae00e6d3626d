package ingest

import (
	"bytes"
	"math"
	"os"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/trackframe"
)

var fitColumnSpecs = trackframe.ColumnSpecs{
	"position_lat":  trackframe.KindLatitude,
	"position_long": trackframe.KindLongitude,
	"altitude":      trackframe.KindAltitude,
	"cadence":       trackframe.KindCadence,
	"distance":      trackframe.KindDistance,
	"heart_rate":    trackframe.KindHeartRate,
	"power":         trackframe.KindPower,
	"speed":         trackframe.KindSpeed,
	"temperature":   trackframe.KindTemperature,
}

// ReadFIT parses a FIT activity file into an activity table.
func ReadFIT(path string) (*trackframe.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFIT(data)
}

// ParseFIT decodes FIT activity bytes into an activity table. Positions are
// decoded from semicircles; FIT invalid-value sentinels become NaN.
func ParseFIT(data []byte) (*trackframe.Activity, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InvalidFileError{Format: "fit", Reason: err.Error()}
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, &InvalidFileError{Format: "fit", Reason: err.Error()}
	}
	if len(activity.Records) == 0 {
		return nil, &InvalidFileError{Format: "fit", Reason: "no record messages"}
	}

	n := len(activity.Records)
	times := make([]time.Time, 0, n)
	lat := make([]float64, 0, n)
	lon := make([]float64, 0, n)
	alt := make([]float64, 0, n)
	dist := make([]float64, 0, n)
	hr := make([]float64, 0, n)
	cad := make([]float64, 0, n)
	speed := make([]float64, 0, n)
	power := make([]float64, 0, n)
	temp := make([]float64, 0, n)

	for _, rec := range activity.Records {
		if rec == nil || rec.Timestamp.IsZero() || fit.IsBaseTime(rec.Timestamp) {
			continue
		}
		times = append(times, rec.Timestamp)
		lat = append(lat, semicircleDegrees(rec.PositionLat.Semicircles()))
		lon = append(lon, semicircleDegrees(rec.PositionLong.Semicircles()))
		alt = append(alt, rec.GetAltitudeScaled())
		dist = append(dist, rec.GetDistanceScaled())
		speed = append(speed, fitSpeed(rec))
		hr = append(hr, invalidUint8(rec.HeartRate))
		cad = append(cad, invalidUint8(rec.Cadence))
		power = append(power, invalidUint16(rec.Power))
		temp = append(temp, invalidInt8(rec.Temperature))
	}
	if len(times) == 0 {
		return nil, &InvalidFileError{Format: "fit", Reason: "no timestamped record messages"}
	}

	raw := trackframe.NewRawTable(times)
	setIfAny(raw, "position_lat", lat)
	setIfAny(raw, "position_long", lon)
	setIfAny(raw, "altitude", alt)
	setIfAny(raw, "distance", dist)
	setIfAny(raw, "speed", speed)
	setIfAny(raw, "heart_rate", hr)
	setIfAny(raw, "cadence", cad)
	setIfAny(raw, "power", power)
	setIfAny(raw, "temperature", temp)

	start := times[0]
	if len(activity.Sessions) > 0 {
		if st := activity.Sessions[0].StartTime; !st.IsZero() && !fit.IsBaseTime(st) {
			start = st
		}
	}
	return trackframe.NewActivity(raw, fitColumnSpecs, start)
}

// semicircleDegrees runs the FIT semicircle decode, keeping NaN for the
// 0x7FFFFFFF invalid sentinel.
func semicircleDegrees(semi int32) float64 {
	if semi == math.MaxInt32 {
		return math.NaN()
	}
	return trackframe.SemicirclesToDegrees(float64(semi))
}

func fitSpeed(rec *fit.RecordMsg) float64 {
	speed := rec.GetEnhancedSpeedScaled()
	if !math.IsNaN(speed) && speed >= 0 {
		return speed
	}
	speed = rec.GetSpeedScaled()
	if !math.IsNaN(speed) && speed >= 0 {
		return speed
	}
	return math.NaN()
}

func invalidUint8(v uint8) float64 {
	if v == math.MaxUint8 {
		return math.NaN()
	}
	return float64(v)
}

func invalidUint16(v uint16) float64 {
	if v == math.MaxUint16 {
		return math.NaN()
	}
	return float64(v)
}

func invalidInt8(v int8) float64 {
	if v == math.MaxInt8 {
		return math.NaN()
	}
	return float64(v)
}
