package trackframe

import (
	"fmt"
	"math"
	"time"
)

// StoppedThreshold is the default speed (m/s) below which a sample is
// classified as stopped.
const StoppedThreshold = 0.8

// UnclassifiedZone labels heart-rate samples that fall outside every
// configured zone boundary.
const UnclassifiedZone = "unclassified"

const earthRadiusM = 6371000.0

// ZoneDuration is the time accumulated inside one heart-rate zone.
type ZoneDuration struct {
	Zone     string
	Duration time.Duration
}

// Computer derives new measurement columns from an activity's existing
// ones. Every method is a pure function of its required columns: it works
// on local temporaries and returns the single resulting column without
// touching the activity, leaving the append to the caller. A missing
// required column surfaces as a RequiredColumnError naming it. Methods
// need the single-level duration index; running them across a session
// table would mix activity boundaries into the time deltas, so that is
// an IndexShapeError and sessions go through the Session accessor.
type Computer struct {
	act *Activity
}

// Compute returns the metrics engine for the activity.
func (a *Activity) Compute() Computer {
	return Computer{act: a}
}

func (m Computer) require(names ...string) error {
	if err := m.act.requireDurationIndex(); err != nil {
		return err
	}
	for _, name := range names {
		if !m.act.HasCol(name) {
			return &RequiredColumnError{Column: name}
		}
	}
	return nil
}

// Distance computes the per-step haversine distance in meters between each
// sample's position and the previous one. The first sample has no
// predecessor and is NaN. With correctDistance the horizontal distance is
// corrected by the altitude change, sqrt(haversine^2 + dAlt^2).
func (m Computer) Distance(correctDistance bool) (*MeasureColumn, error) {
	if err := m.require("lat", "lon"); err != nil {
		return nil, err
	}
	lat, _ := m.act.Col("lat")
	lon, _ := m.act.Col("lon")

	steps := make([]float64, m.act.Len())
	for i := range steps {
		if i == 0 {
			steps[i] = math.NaN()
			continue
		}
		steps[i] = haversine(lat.values[i-1], lon.values[i-1], lat.values[i], lon.values[i])
	}

	if correctDistance {
		if err := m.require("alt"); err != nil {
			return nil, err
		}
		alt, _ := m.act.Col("alt")
		for i := range steps {
			if i == 0 {
				continue
			}
			dAlt := alt.values[i] - alt.values[i-1]
			steps[i] = math.Sqrt(steps[i]*steps[i] + dAlt*dAlt)
		}
	}
	return NewDistancePerPosition(steps), nil
}

// Speed computes the speed column in m/s. With fromDistances the per-step
// distance column is divided by the per-sample time delta; otherwise a
// recorded speed column is passed through, re-typed.
func (m Computer) Speed(fromDistances bool) (*MeasureColumn, error) {
	if fromDistances {
		if err := m.require("distpos"); err != nil {
			return nil, err
		}
		distpos, _ := m.act.Col("distpos")
		deltas := m.act.timeDeltas()
		out := make([]float64, len(deltas))
		for i := range out {
			out[i] = distpos.values[i] / deltas[i]
		}
		return NewSpeed(out), nil
	}
	if err := m.require("speed"); err != nil {
		return nil, err
	}
	speed, _ := m.act.Col("speed")
	return NewSpeed(speed.values), nil
}

// VerticalSpeed computes the vertical ascent rate (VAM) in m/s, the
// altitude delta over the time delta.
func (m Computer) VerticalSpeed() (*MeasureColumn, error) {
	if err := m.require("alt"); err != nil {
		return nil, err
	}
	alt, _ := m.act.Col("alt")
	deltas := m.act.timeDeltas()
	rise := diff(alt.values)
	out := make([]float64, len(rise))
	for i := range out {
		out[i] = rise[i] / deltas[i]
	}
	return NewVAM(out), nil
}

// Gradient computes the elementwise slope, altitude delta over cumulative
// distance delta, packaged as the dependent gradient kind carrying its
// rise and run for later angle conversions.
func (m Computer) Gradient() (*MeasureColumn, error) {
	if err := m.require("alt", "dist"); err != nil {
		return nil, err
	}
	alt, _ := m.act.Col("alt")
	dist, _ := m.act.Col("dist")
	return NewGradient(diff(alt.values), diff(dist.values)), nil
}

// Pace computes the inverse of the speed column as seconds per meter.
func (m Computer) Pace() (*MeasureColumn, error) {
	if err := m.require("speed"); err != nil {
		return nil, err
	}
	speed, _ := m.act.Col("speed")
	return speed.ToPace()
}

// HeartZone bins the heart-rate column into labeled training zones. Bins
// are left-open, right-closed intervals over consecutive boundaries, so
// len(labels) must equal len(bins)-1. Samples outside every bin map to the
// unclassified marker rather than failing.
func (m Computer) HeartZone(bins []float64, labels []string) (*MeasureColumn, error) {
	if err := m.require("hr"); err != nil {
		return nil, err
	}
	if len(bins) < 2 || len(labels) != len(bins)-1 {
		return nil, fmt.Errorf("heart zone labels must match bins: %d labels for %d bins", len(labels), len(bins))
	}
	hr, _ := m.act.Col("hr")
	out := make([]string, len(hr.values))
	for i, v := range hr.values {
		out[i] = zoneLabel(v, bins, labels)
	}
	return NewHeartZone(out), nil
}

func zoneLabel(v float64, bins []float64, labels []string) string {
	if !isFinite(v) {
		return UnclassifiedZone
	}
	for i := 0; i < len(labels); i++ {
		if v > bins[i] && v <= bins[i+1] {
			return labels[i]
		}
	}
	return UnclassifiedZone
}

// TimeInZone groups the per-sample time deltas by heart-rate zone and sums
// them. The per-zone durations always add up to the activity's elapsed
// time exactly. An unclassified bucket is appended when out-of-range
// samples contributed time.
func (m Computer) TimeInZone(bins []float64, labels []string) ([]ZoneDuration, error) {
	zones, err := m.HeartZone(bins, labels)
	if err != nil {
		return nil, err
	}
	deltas := m.act.durationDeltas()
	totals := make(map[string]time.Duration, len(labels)+1)
	for i, label := range zones.labels {
		totals[label] += deltas[i]
	}
	out := make([]ZoneDuration, 0, len(labels)+1)
	for _, label := range labels {
		out = append(out, ZoneDuration{Zone: label, Duration: totals[label]})
	}
	if d, ok := totals[UnclassifiedZone]; ok {
		out = append(out, ZoneDuration{Zone: UnclassifiedZone, Duration: d})
	}
	return out, nil
}

// OnlyMoving classifies each sample as moving or stopped by comparing the
// speed column against the threshold. Speeds at or above the threshold are
// moving.
func (m Computer) OnlyMoving(threshold float64) (*MeasureColumn, error) {
	if err := m.require("speed"); err != nil {
		return nil, err
	}
	speed, _ := m.act.Col("speed")
	flags := make([]bool, len(speed.values))
	for i, v := range speed.values {
		flags[i] = v >= threshold
	}
	return NewMoving(flags), nil
}

// haversine returns the great-circle distance in meters between two
// (lat, lon) points given in degrees.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	s := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}
