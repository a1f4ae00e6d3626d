package trackframe

import (
	"fmt"
	"math"
	"time"
)

// Kind identifies a concrete measurement column kind. Every kind owns a
// globally unique canonical column name and a base unit; constructing a
// column of a kind always reasserts the canonical name, regardless of what
// the source data called it.
type Kind int

const (
	KindRaw Kind = iota
	KindAltitude
	KindCadence
	KindDistance
	KindDistancePerPosition
	KindGradient
	KindHeartRate
	KindHeartZone
	KindLatitude
	KindLongitude
	KindMoving
	KindPace
	KindPower
	KindSpeed
	KindTemperature
	KindVAM
)

var kindNames = map[Kind]string{
	KindAltitude:            "alt",
	KindCadence:             "cad",
	KindDistance:            "dist",
	KindDistancePerPosition: "distpos",
	KindGradient:            "grad",
	KindHeartRate:           "hr",
	KindHeartZone:           "hr_zone",
	KindLatitude:            "lat",
	KindLongitude:           "lon",
	KindMoving:              "moving",
	KindPace:                "pace",
	KindPower:               "pwr",
	KindSpeed:               "speed",
	KindTemperature:         "temp",
	KindVAM:                 "vam",
}

var kindUnits = map[Kind]string{
	KindAltitude:            "m",
	KindCadence:             "rpm",
	KindDistance:            "m",
	KindDistancePerPosition: "m",
	KindGradient:            "fraction",
	KindHeartRate:           "bpm",
	KindLatitude:            "degrees",
	KindLongitude:           "degrees",
	KindPace:                "sec/m",
	KindPower:               "watts",
	KindSpeed:               "m/s",
	KindTemperature:         "degrees_C",
	KindVAM:                 "m/s",
}

// kindByName is the static registry used to re-hydrate untyped data: a
// column name maps to exactly one kind.
var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "raw"
}

// KindOf looks a column name up in the kind registry.
func KindOf(name string) (Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// Per-kind conversion factors, relative to the kind's base unit.
var unitFactors = map[Kind]map[string]float64{
	KindAltitude: {"m": 1, "ft": 3.28084},
	KindDistance: {"m": 1, "km": 0.001, "mi": 0.000621371},
	KindDistancePerPosition: {"m": 1, "km": 0.001, "mi": 0.000621371},
	KindSpeed:    {"m/s": 1, "km/h": 3.6},
	KindVAM:      {"m/s": 1, "km/h": 3.6},
	KindPace:     {"sec/m": 1, "sec/km": 1000},
	KindGradient: {"fraction": 1, "%": 100},
}

// MeasureColumn is a named, ordered series of measurements aligned to an
// activity's row index. Numeric kinds carry float64 values; the moving kind
// carries booleans and the heart-zone kind categorical labels. Conversions
// construct a new column, never mutating in place.
type MeasureColumn struct {
	kind   Kind
	name   string // canonical for typed kinds, source name for raw columns
	unit   string
	values []float64
	flags  []bool
	labels []string

	// gradient sidecars, captured at construction
	rise []float64
	run  []float64
}

// NewColumn builds a column of the given kind from raw values, reasserting
// the kind's canonical name and base unit. This is the re-hydration path
// used by adapters and the registry.
func NewColumn(kind Kind, values []float64) *MeasureColumn {
	return &MeasureColumn{
		kind:   kind,
		name:   kindNames[kind],
		unit:   kindUnits[kind],
		values: append([]float64(nil), values...),
	}
}

// NewRawColumn keeps an untyped source column under its original name.
func NewRawColumn(name string, values []float64) *MeasureColumn {
	return &MeasureColumn{
		kind:   KindRaw,
		name:   name,
		values: append([]float64(nil), values...),
	}
}

func NewAltitude(values []float64) *MeasureColumn    { return NewColumn(KindAltitude, values) }
func NewCadence(values []float64) *MeasureColumn     { return NewColumn(KindCadence, values) }
func NewDistance(values []float64) *MeasureColumn    { return NewColumn(KindDistance, values) }
func NewHeartRate(values []float64) *MeasureColumn   { return NewColumn(KindHeartRate, values) }
func NewLatitude(values []float64) *MeasureColumn    { return NewColumn(KindLatitude, values) }
func NewLongitude(values []float64) *MeasureColumn   { return NewColumn(KindLongitude, values) }
func NewPace(values []float64) *MeasureColumn        { return NewColumn(KindPace, values) }
func NewPower(values []float64) *MeasureColumn       { return NewColumn(KindPower, values) }
func NewSpeed(values []float64) *MeasureColumn       { return NewColumn(KindSpeed, values) }
func NewTemperature(values []float64) *MeasureColumn { return NewColumn(KindTemperature, values) }
func NewVAM(values []float64) *MeasureColumn         { return NewColumn(KindVAM, values) }

// NewDistancePerPosition builds a per-step distance column: each value is
// the distance covered since the previous sample.
func NewDistancePerPosition(values []float64) *MeasureColumn {
	return NewColumn(KindDistancePerPosition, values)
}

// NewMoving builds the boolean moving/stopped classification column.
func NewMoving(flags []bool) *MeasureColumn {
	return &MeasureColumn{
		kind:  KindMoving,
		name:  kindNames[KindMoving],
		flags: append([]bool(nil), flags...),
	}
}

// NewHeartZone builds the categorical heart-rate zone column.
func NewHeartZone(labels []string) *MeasureColumn {
	return &MeasureColumn{
		kind:   KindHeartZone,
		name:   kindNames[KindHeartZone],
		labels: append([]string(nil), labels...),
	}
}

// NewGradient builds a gradient column from parallel rise (altitude delta)
// and run (distance delta) series. The stored values are the elementwise
// rise/run ratio; rise and run are kept as sidecars for later angle
// conversions.
func NewGradient(rise, run []float64) *MeasureColumn {
	values := make([]float64, len(rise))
	for i := range rise {
		values[i] = rise[i] / run[i]
	}
	return &MeasureColumn{
		kind:   KindGradient,
		name:   kindNames[KindGradient],
		unit:   kindUnits[KindGradient],
		values: values,
		rise:   append([]float64(nil), rise...),
		run:    append([]float64(nil), run...),
	}
}

// NewLatitudeFromSemicircles decodes FIT semicircle-encoded latitude.
func NewLatitudeFromSemicircles(raw []float64) *MeasureColumn {
	return NewLatitude(degreesFromSemicircles(raw))
}

// NewLongitudeFromSemicircles decodes FIT semicircle-encoded longitude.
func NewLongitudeFromSemicircles(raw []float64) *MeasureColumn {
	return NewLongitude(degreesFromSemicircles(raw))
}

// SemicirclesToDegrees maps a raw FIT semicircle value onto [-180, 180).
func SemicirclesToDegrees(raw float64) float64 {
	deg := math.Mod(raw*180.0/2147483648.0+180.0, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg - 180.0
}

func degreesFromSemicircles(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		if !isFinite(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = SemicirclesToDegrees(v)
	}
	return out
}

func (c *MeasureColumn) Kind() Kind   { return c.kind }
func (c *MeasureColumn) Name() string { return c.name }
func (c *MeasureColumn) Unit() string { return c.unit }

// Len reports the number of samples in the column.
func (c *MeasureColumn) Len() int {
	switch c.kind {
	case KindMoving:
		return len(c.flags)
	case KindHeartZone:
		return len(c.labels)
	default:
		return len(c.values)
	}
}

// Values returns the numeric samples as a read-only view.
func (c *MeasureColumn) Values() []float64 { return c.values }

// Bools returns the boolean samples of a moving column as a read-only view.
func (c *MeasureColumn) Bools() []bool { return c.flags }

// Labels returns the categorical samples of a zone column as a read-only view.
func (c *MeasureColumn) Labels() []string { return c.labels }

// Rise returns the gradient rise sidecar, nil for other kinds.
func (c *MeasureColumn) Rise() []float64 { return c.rise }

// Run returns the gradient run sidecar, nil for other kinds.
func (c *MeasureColumn) Run() []float64 { return c.run }

// Convert returns a new column with the values scaled into the target unit.
// Factors are fixed per (kind, unit) pair; converting to the current unit is
// the identity.
func (c *MeasureColumn) Convert(unit string) (*MeasureColumn, error) {
	factors, ok := unitFactors[c.kind]
	if !ok {
		return nil, fmt.Errorf("column kind %s has no unit conversions", c.kind)
	}
	to, ok := factors[unit]
	if !ok {
		return nil, fmt.Errorf("unknown unit %q for column kind %s", unit, c.kind)
	}
	from := factors[c.currentUnit()]
	scale := to / from
	out := c.withValues(scaledValues(c.values, scale))
	out.unit = unit
	if c.kind == KindGradient {
		out.rise = append([]float64(nil), c.rise...)
		out.run = append([]float64(nil), c.run...)
	}
	return out, nil
}

func (c *MeasureColumn) currentUnit() string {
	if c.unit == "" {
		return kindUnits[c.kind]
	}
	return c.unit
}

func (c *MeasureColumn) withValues(values []float64) *MeasureColumn {
	return &MeasureColumn{kind: c.kind, name: c.name, unit: c.unit, values: values}
}

func scaledValues(values []float64, scale float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * scale
	}
	return out
}

// Feet converts an altitude column from meters to feet.
func (c *MeasureColumn) Feet() (*MeasureColumn, error) {
	if c.kind != KindAltitude {
		return nil, &KindError{Op: "Feet", Want: KindAltitude, Got: c.kind}
	}
	return c.Convert("ft")
}

// Ascent returns the elementwise positive altitude change between
// consecutive samples. The first sample has no prior sample and contributes
// a zero delta.
func (c *MeasureColumn) Ascent() (*MeasureColumn, error) {
	if c.kind != KindAltitude {
		return nil, &KindError{Op: "Ascent", Want: KindAltitude, Got: c.kind}
	}
	return c.withValues(clippedDiff(c.values, false)), nil
}

// Descent returns the elementwise negative altitude change between
// consecutive samples, clipped to non-positive values.
func (c *MeasureColumn) Descent() (*MeasureColumn, error) {
	if c.kind != KindAltitude {
		return nil, &KindError{Op: "Descent", Want: KindAltitude, Got: c.kind}
	}
	return c.withValues(clippedDiff(c.values, true)), nil
}

func clippedDiff(values []float64, negative bool) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = 0
			continue
		}
		d := values[i] - values[i-1]
		if negative {
			if d > 0 {
				d = 0
			}
		} else if d < 0 {
			d = 0
		}
		out[i] = d
	}
	return out
}

// Km converts a cumulative distance column from meters to kilometers.
func (c *MeasureColumn) Km() (*MeasureColumn, error) {
	if c.kind != KindDistance {
		return nil, &KindError{Op: "Km", Want: KindDistance, Got: c.kind}
	}
	return c.Convert("km")
}

// Miles converts a cumulative distance column from meters to miles.
func (c *MeasureColumn) Miles() (*MeasureColumn, error) {
	if c.kind != KindDistance {
		return nil, &KindError{Op: "Miles", Want: KindDistance, Got: c.kind}
	}
	return c.Convert("mi")
}

// ToDistance turns a per-step distance column into the cumulative running
// total. NaN steps keep a NaN slot but do not interrupt the running sum, so
// the final cumulative value equals the NaN-ignoring sum of the steps. No
// inverse is provided; cumulative-to-per-step is a plain forward difference.
func (c *MeasureColumn) ToDistance() (*MeasureColumn, error) {
	if c.kind != KindDistancePerPosition {
		return nil, &KindError{Op: "ToDistance", Want: KindDistancePerPosition, Got: c.kind}
	}
	out := make([]float64, len(c.values))
	total := 0.0
	for i, v := range c.values {
		if !isFinite(v) {
			out[i] = math.NaN()
			continue
		}
		total += v
		out[i] = total
	}
	return NewDistance(out), nil
}

// Kph converts a speed column from m/s to km/h.
func (c *MeasureColumn) Kph() (*MeasureColumn, error) {
	if c.kind != KindSpeed && c.kind != KindVAM {
		return nil, &KindError{Op: "Kph", Want: KindSpeed, Got: c.kind}
	}
	return c.Convert("km/h")
}

// ToPace inverts a speed column into seconds per meter. A speed of exactly
// zero yields +Inf rather than failing.
func (c *MeasureColumn) ToPace() (*MeasureColumn, error) {
	if c.kind != KindSpeed {
		return nil, &KindError{Op: "ToPace", Want: KindSpeed, Got: c.kind}
	}
	out := make([]float64, len(c.values))
	for i, v := range c.values {
		switch {
		case !isFinite(v):
			out[i] = math.NaN()
		case v == 0:
			out[i] = math.Inf(1)
		default:
			out[i] = 1 / v
		}
	}
	return NewPace(out), nil
}

// PerKm converts a pace column from seconds per meter to seconds per
// kilometer.
func (c *MeasureColumn) PerKm() (*MeasureColumn, error) {
	if c.kind != KindPace {
		return nil, &KindError{Op: "PerKm", Want: KindPace, Got: c.kind}
	}
	return c.Convert("sec/km")
}

// Durations renders a pace column as time.Duration samples. Infinite or NaN
// paces are capped at the maximum representable duration.
func (c *MeasureColumn) Durations() ([]time.Duration, error) {
	if c.kind != KindPace {
		return nil, &KindError{Op: "Durations", Want: KindPace, Got: c.kind}
	}
	out := make([]time.Duration, len(c.values))
	for i, v := range c.values {
		out[i] = secondsToDuration(v)
	}
	return out, nil
}

func secondsToDuration(seconds float64) time.Duration {
	if !isFinite(seconds) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}

// Pct returns the gradient as a percentage.
func (c *MeasureColumn) Pct() (*MeasureColumn, error) {
	if c.kind != KindGradient {
		return nil, &KindError{Op: "Pct", Want: KindGradient, Got: c.kind}
	}
	return c.Convert("%")
}

// Radians returns the gradient slope angle in radians. atan2(rise, run) is
// used rather than atan(rise/run) so the angle stays defined when run == 0.
func (c *MeasureColumn) Radians() (*MeasureColumn, error) {
	if c.kind != KindGradient {
		return nil, &KindError{Op: "Radians", Want: KindGradient, Got: c.kind}
	}
	out := make([]float64, len(c.rise))
	for i := range c.rise {
		out[i] = math.Atan2(c.rise[i], c.run[i])
	}
	col := c.withValues(out)
	col.unit = "radians"
	return col, nil
}

// Degrees returns the gradient slope angle in degrees.
func (c *MeasureColumn) Degrees() (*MeasureColumn, error) {
	rad, err := c.Radians()
	if err != nil {
		return nil, err
	}
	out := rad.values
	for i, v := range out {
		out[i] = v * 180.0 / math.Pi
	}
	rad.unit = "degrees"
	return rad, nil
}

func (c *MeasureColumn) copyColumn() *MeasureColumn {
	out := &MeasureColumn{kind: c.kind, name: c.name, unit: c.unit}
	out.values = append([]float64(nil), c.values...)
	out.flags = append([]bool(nil), c.flags...)
	out.labels = append([]string(nil), c.labels...)
	out.rise = append([]float64(nil), c.rise...)
	out.run = append([]float64(nil), c.run...)
	return out
}

func (c *MeasureColumn) sliceColumn(i, j int) *MeasureColumn {
	out := &MeasureColumn{kind: c.kind, name: c.name, unit: c.unit}
	if c.values != nil {
		out.values = append([]float64(nil), c.values[i:j]...)
	}
	if c.flags != nil {
		out.flags = append([]bool(nil), c.flags[i:j]...)
	}
	if c.labels != nil {
		out.labels = append([]string(nil), c.labels[i:j]...)
	}
	if c.rise != nil {
		out.rise = append([]float64(nil), c.rise[i:j]...)
	}
	if c.run != nil {
		out.run = append([]float64(nil), c.run[i:j]...)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
