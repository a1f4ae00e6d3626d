// Package export writes the canonical samples of an activity table as
// parquet or CSV, one row per sample with a fixed column schema.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/trackframe"
)

// Sample is one canonical row: the sample offset plus every standard
// measurement, NaN where the source carries no value.
type Sample struct {
	StartUTC   string
	ElapsedS   float64
	Lat        float64
	Lon        float64
	AltitudeM  float64
	DistposM   float64
	DistanceM  float64
	SpeedMPS   float64
	PaceSecM   float64
	VAMMPS     float64
	Grade      float64
	HRBPM      float64
	CadenceRPM float64
	PowerW     float64
	TempC      float64
	Moving     bool
	HeartZone  string
}

// Samples flattens the activity table into canonical rows.
func Samples(a *trackframe.Activity) []Sample {
	n := a.Len()
	out := make([]Sample, n)
	startISO := a.Start().UTC().Format(time.RFC3339)
	offsets := a.Index()
	for i := range out {
		out[i] = Sample{
			StartUTC:   startISO,
			Lat:        math.NaN(),
			Lon:        math.NaN(),
			AltitudeM:  math.NaN(),
			DistposM:   math.NaN(),
			DistanceM:  math.NaN(),
			SpeedMPS:   math.NaN(),
			PaceSecM:   math.NaN(),
			VAMMPS:     math.NaN(),
			Grade:      math.NaN(),
			HRBPM:      math.NaN(),
			CadenceRPM: math.NaN(),
			PowerW:     math.NaN(),
			TempC:      math.NaN(),
		}
		if i < len(offsets) {
			out[i].ElapsedS = offsets[i].Seconds()
		}
	}

	fill := func(name string, set func(*Sample, float64)) {
		col, err := a.Col(name)
		if err != nil {
			return
		}
		for i, v := range col.Values() {
			set(&out[i], v)
		}
	}
	fill("lat", func(s *Sample, v float64) { s.Lat = v })
	fill("lon", func(s *Sample, v float64) { s.Lon = v })
	fill("alt", func(s *Sample, v float64) { s.AltitudeM = v })
	fill("distpos", func(s *Sample, v float64) { s.DistposM = v })
	fill("dist", func(s *Sample, v float64) { s.DistanceM = v })
	fill("speed", func(s *Sample, v float64) { s.SpeedMPS = v })
	fill("pace", func(s *Sample, v float64) { s.PaceSecM = v })
	fill("vam", func(s *Sample, v float64) { s.VAMMPS = v })
	fill("grad", func(s *Sample, v float64) { s.Grade = v })
	fill("hr", func(s *Sample, v float64) { s.HRBPM = v })
	fill("cad", func(s *Sample, v float64) { s.CadenceRPM = v })
	fill("pwr", func(s *Sample, v float64) { s.PowerW = v })
	fill("temp", func(s *Sample, v float64) { s.TempC = v })

	if moving, err := a.Col("moving"); err == nil {
		for i, flag := range moving.Bools() {
			out[i].Moving = flag
		}
	}
	if zones, err := a.Col("hr_zone"); err == nil {
		for i, label := range zones.Labels() {
			out[i].HeartZone = label
		}
	}
	return out
}

// WriteCanonical writes the activity's canonical samples to path in the
// requested format, parquet or csv.
func WriteCanonical(a *trackframe.Activity, path, format string) error {
	samples := Samples(a)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return writeCanonicalCSV(path, samples)
	case "", "parquet":
		return writeCanonicalParquet(path, samples)
	default:
		return fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
}

var canonicalHeader = []string{
	"start_utc_iso", "elapsed_s", "lat", "lon", "altitude_m", "distpos_m", "distance_m",
	"speed_mps", "pace_sec_m", "vam_mps", "grade", "hr_bpm", "cadence_rpm", "power_w",
	"temperature_c", "moving", "hr_zone",
}

func writeCanonicalCSV(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(canonicalHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.StartUTC,
			formatFloat(s.ElapsedS),
			formatFloat(s.Lat),
			formatFloat(s.Lon),
			formatFloat(s.AltitudeM),
			formatFloat(s.DistposM),
			formatFloat(s.DistanceM),
			formatFloat(s.SpeedMPS),
			formatFloat(s.PaceSecM),
			formatFloat(s.VAMMPS),
			formatFloat(s.Grade),
			formatFloat(s.HRBPM),
			formatFloat(s.CadenceRPM),
			formatFloat(s.PowerW),
			formatFloat(s.TempC),
			strconv.FormatBool(s.Moving),
			s.HeartZone,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
