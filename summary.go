package trackframe

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ActivitySummary is the fixed-schema descriptive-statistics record of one
// activity. Every statistic that depends on an absent column or an
// unavailable accessor resolves to NaN instead of an error; summaries never
// fail for missing sensor data.
type ActivitySummary struct {
	Session             string    `json:"session"`
	Start               time.Time `json:"start"`
	TotalDistanceM      float64   `json:"total_distance_m"`
	ElapsedSeconds      float64   `json:"elapsed_seconds"`
	MovingSeconds       float64   `json:"moving_seconds"`
	AvgSpeedKmh         float64   `json:"avg_speed_kmh"`
	AvgMovingSpeedKmh   float64   `json:"avg_moving_speed_kmh"`
	AvgPaceSecPerKm     float64   `json:"avg_pace_sec_per_km"`
	AvgMovingPaceSecKm  float64   `json:"avg_moving_pace_sec_per_km"`
	AvgCadence          float64   `json:"avg_cadence_rpm"`
	AvgMovingCadence    float64   `json:"avg_moving_cadence_rpm"`
	AvgHeartRate        float64   `json:"avg_heart_rate_bpm"`
	AvgMovingHeartRate  float64   `json:"avg_moving_heart_rate_bpm"`
	AvgTemperature      float64   `json:"avg_temperature_c"`
}

// SessionActivitySummary extends the per-activity record with the extrema
// emitted for whole-session reports.
type SessionActivitySummary struct {
	ActivitySummary
	MaxSpeedKmh    float64 `json:"max_speed_kmh"`
	MaxCadence     float64 `json:"max_cadence_rpm"`
	MaxHeartRate   float64 `json:"max_heart_rate_bpm"`
	MinTemperature float64 `json:"min_temperature_c"`
	MaxTemperature float64 `json:"max_temperature_c"`
}

// BuildSummary reduces one activity into its summary record.
func BuildSummary(a *Activity) ActivitySummary {
	s := ActivitySummary{
		Session: fmt.Sprintf("Running: %s", a.start.Format("02-01-2006 15:04:05")),
		Start:   a.start,
	}

	s.TotalDistanceM = math.NaN()
	if dist, err := a.Distance(); err == nil {
		s.TotalDistanceM = dist
	}

	s.ElapsedSeconds = math.NaN()
	if elapsed, err := a.ElapsedTime(); err == nil {
		s.ElapsedSeconds = elapsed.Seconds()
	}

	s.MovingSeconds = math.NaN()
	if moving, err := a.MovingTime(); err == nil {
		s.MovingSeconds = moving.Seconds()
	}

	s.AvgSpeedKmh, s.AvgPaceSecPerKm = speedAndPace(a, false)
	s.AvgMovingSpeedKmh, s.AvgMovingPaceSecKm = speedAndPace(a, true)

	s.AvgCadence = meanOrNaN(a.MeanCadence(false))
	s.AvgMovingCadence = meanOrNaN(a.MeanCadence(true))
	s.AvgHeartRate = meanOrNaN(a.MeanHeartRate(false))
	s.AvgMovingHeartRate = meanOrNaN(a.MeanHeartRate(true))

	s.AvgTemperature = math.NaN()
	if temp, err := a.Col("temp"); err == nil {
		s.AvgTemperature = finiteMean(temp.values)
	}
	return s
}

func speedAndPace(a *Activity, onlyMoving bool) (kmh, paceSecKm float64) {
	speed, err := a.MeanSpeed(onlyMoving, true)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	kmh = speed * 3.6
	if speed == 0 {
		return kmh, math.Inf(1)
	}
	// sec/m scaled to seconds per kilometer.
	return kmh, 1 / speed * 1000
}

func meanOrNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}

// Summarize reduces every activity of the session independently, keyed and
// ordered by activity start time.
func (s *Session) Summarize() []SessionActivitySummary {
	starts := s.Starts()
	out := make([]SessionActivitySummary, 0, len(starts))
	for _, ts := range starts {
		i, j := s.bounds(ts)
		sub := s.extract(i, j)
		rec := SessionActivitySummary{ActivitySummary: BuildSummary(sub)}

		rec.MaxSpeedKmh = math.NaN()
		if speed, err := sub.Col("speed"); err == nil {
			rec.MaxSpeedKmh = finiteMax(speed.values) * 3.6
		}
		rec.MaxCadence = math.NaN()
		if cad, err := sub.Col("cad"); err == nil {
			rec.MaxCadence = finiteMax(cad.values)
		}
		rec.MaxHeartRate = math.NaN()
		if hr, err := sub.Col("hr"); err == nil {
			rec.MaxHeartRate = finiteMax(hr.values)
		}
		rec.MinTemperature = math.NaN()
		rec.MaxTemperature = math.NaN()
		if temp, err := sub.Col("temp"); err == nil {
			rec.MinTemperature = finiteMin(temp.values)
			rec.MaxTemperature = finiteMax(temp.values)
		}
		out = append(out, rec)
	}
	return out
}

// String renders the summary as a human-readable report.
func (s ActivitySummary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s\n", s.Session)
	fmt.Fprintf(&b, "Total distance:       %s\n", formatMeters(s.TotalDistanceM))
	fmt.Fprintf(&b, "Total elapsed time:   %s\n", formatSeconds(s.ElapsedSeconds))
	fmt.Fprintf(&b, "Total moving time:    %s\n", formatSeconds(s.MovingSeconds))
	fmt.Fprintf(&b, "Average speed:        %s | moving %s\n",
		formatKmh(s.AvgSpeedKmh), formatKmh(s.AvgMovingSpeedKmh))
	fmt.Fprintf(&b, "Average pace (/km):   %s | moving %s\n",
		formatPace(s.AvgPaceSecPerKm), formatPace(s.AvgMovingPaceSecKm))
	fmt.Fprintf(&b, "Average cadence:      %s | moving %s\n",
		formatScalar(s.AvgCadence, "rpm"), formatScalar(s.AvgMovingCadence, "rpm"))
	fmt.Fprintf(&b, "Average heart rate:   %s | moving %s\n",
		formatScalar(s.AvgHeartRate, "bpm"), formatScalar(s.AvgMovingHeartRate, "bpm"))
	fmt.Fprintf(&b, "Average temperature:  %s\n", formatScalar(s.AvgTemperature, "C"))
	return b.String()
}

func formatMeters(v float64) string {
	if !isFinite(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f m", v)
}

func formatSeconds(v float64) string {
	if !isFinite(v) {
		return "n/a"
	}
	d := time.Duration(v * float64(time.Second)).Round(time.Second)
	return d.String()
}

func formatKmh(v float64) string {
	if !isFinite(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f km/h", v)
}

func formatPace(secPerKm float64) string {
	if !isFinite(secPerKm) {
		return "n/a"
	}
	total := int(math.Round(secPerKm))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func formatScalar(v float64, unit string) string {
	if !isFinite(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}
