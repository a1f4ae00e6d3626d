package trackframe

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RawTable is the adapter-to-core handoff: a time column plus named numeric
// columns, in source order. Adapters fill one of these and pass it to
// NewActivity together with the column specs and the start timestamp.
type RawTable struct {
	times   []time.Time
	order   []string
	columns map[string][]float64
}

// NewRawTable starts a raw table over the given sample timestamps.
func NewRawTable(times []time.Time) *RawTable {
	return &RawTable{
		times:   append([]time.Time(nil), times...),
		columns: make(map[string][]float64),
	}
}

// Set adds or replaces a named column of raw values.
func (t *RawTable) Set(name string, values []float64) {
	if _, ok := t.columns[name]; !ok {
		t.order = append(t.order, name)
	}
	t.columns[name] = values
}

// Names returns the column names in insertion order.
func (t *RawTable) Names() []string { return append([]string(nil), t.order...) }

// Len reports the number of rows.
func (t *RawTable) Len() int { return len(t.times) }

// ColumnSpecs maps a source column name onto the measurement kind it should
// be re-typed as.
type ColumnSpecs map[string]Kind

// Activity is a table of measurement columns sharing a row index. The index
// is either one duration-since-start level (a single activity) or two
// levels, (activity start, duration-since-that-start), for sessions built
// with Concat. The start timestamp rides along as sidecar metadata.
type Activity struct {
	start    time.Time
	offsets  []time.Duration // nil once the index has been reset
	starts   []time.Time     // per-row outer level; nil for a single activity
	cols     []*MeasureColumn
	byName   map[string]int
	warnings []string
}

// NewActivity builds an activity table from a raw table. Each source column
// named in specs is popped, re-typed as the spec'd kind and re-keyed under
// the kind's canonical name; spec entries with no matching source column are
// skipped with a non-fatal warning. Remaining source columns are kept
// untyped under their original names. Rows are re-indexed by time elapsed
// since the first sample.
func NewActivity(raw *RawTable, specs ColumnSpecs, start time.Time) (*Activity, error) {
	if raw == nil || len(raw.times) == 0 {
		return nil, fmt.Errorf("raw table has no time column samples")
	}
	for name, values := range raw.columns {
		if len(values) != len(raw.times) {
			return nil, fmt.Errorf("column %q has %d samples, want %d", name, len(values), len(raw.times))
		}
	}

	a := &Activity{
		start:   start,
		offsets: make([]time.Duration, len(raw.times)),
		byName:  make(map[string]int),
	}
	for i, ts := range raw.times {
		a.offsets[i] = ts.Sub(raw.times[0])
	}

	// Deterministic spec order.
	specNames := make([]string, 0, len(specs))
	for name := range specs {
		specNames = append(specNames, name)
	}
	sort.Strings(specNames)

	taken := make(map[string]bool, len(specs))
	for _, name := range specNames {
		values, ok := raw.columns[name]
		if !ok {
			a.warnings = append(a.warnings, fmt.Sprintf("column %q not found in source data; skipping", name))
			continue
		}
		taken[name] = true
		a.setCol(NewColumn(specs[name], values))
	}
	for _, name := range raw.order {
		if taken[name] {
			continue
		}
		a.setCol(NewRawColumn(name, raw.columns[name]))
	}
	return a, nil
}

// Start returns the wall-clock timestamp of the first sample.
func (a *Activity) Start() time.Time { return a.start }

// Warnings returns the non-fatal notices collected while the table was
// constructed, such as spec'd columns missing from the source.
func (a *Activity) Warnings() []string { return append([]string(nil), a.warnings...) }

// Len reports the number of rows.
func (a *Activity) Len() int {
	if a.offsets != nil {
		return len(a.offsets)
	}
	if len(a.cols) > 0 {
		return a.cols[0].Len()
	}
	return 0
}

// Columns returns the column names in insertion order.
func (a *Activity) Columns() []string {
	out := make([]string, len(a.cols))
	for i, c := range a.cols {
		out[i] = c.name
	}
	return out
}

// HasCol reports whether a column with the given name is present.
func (a *Activity) HasCol(name string) bool {
	_, ok := a.byName[name]
	return ok
}

// Col returns the column with the given name, typed per the kind registry.
// A gradient column whose rise/run sidecars were lost (for example one
// scattered back from a session operation) is re-derived from the current
// altitude and cumulative-distance columns and the sidecars cached for
// subsequent accesses.
func (a *Activity) Col(name string) (*MeasureColumn, error) {
	i, ok := a.byName[name]
	if !ok {
		return nil, &ColumnNotFoundError{Column: name}
	}
	c := a.cols[i]
	if c.kind == KindGradient && c.rise == nil {
		if err := a.rebuildGradientSidecars(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (a *Activity) rebuildGradientSidecars(c *MeasureColumn) error {
	alt, err := a.Col("alt")
	if err != nil {
		return &RequiredColumnError{Column: "alt"}
	}
	dist, err := a.Col("dist")
	if err != nil {
		return &RequiredColumnError{Column: "dist"}
	}
	c.rise = diff(alt.values)
	c.run = diff(dist.values)
	return nil
}

// SetCol adds the column to the table, replacing any column with the same
// name.
func (a *Activity) SetCol(c *MeasureColumn) {
	a.setCol(c)
}

func (a *Activity) setCol(c *MeasureColumn) {
	if i, ok := a.byName[c.name]; ok {
		a.cols[i] = c
		return
	}
	a.byName[c.name] = len(a.cols)
	a.cols = append(a.cols, c)
}

// Drop removes a column if present.
func (a *Activity) Drop(name string) {
	i, ok := a.byName[name]
	if !ok {
		return
	}
	a.cols = append(a.cols[:i], a.cols[i+1:]...)
	delete(a.byName, name)
	for n, j := range a.byName {
		if j > i {
			a.byName[n] = j - 1
		}
	}
}

// Index returns the duration-since-start offsets, or nil if the index has
// been reset or the caller should consult Starts for the outer level.
func (a *Activity) Index() []time.Duration {
	return append([]time.Duration(nil), a.offsets...)
}

// IsSession reports whether the table carries the two-level
// (start, duration) session index.
func (a *Activity) IsSession() bool { return a.starts != nil }

// ResetIndex demotes the duration index to an ordinary column of elapsed
// seconds named "time". Elapsed time, moving time and the session accessor
// are permanently unavailable afterward.
func (a *Activity) ResetIndex() {
	if a.offsets == nil {
		return
	}
	seconds := make([]float64, len(a.offsets))
	for i, off := range a.offsets {
		seconds[i] = off.Seconds()
	}
	a.setCol(NewRawColumn("time", seconds))
	a.offsets = nil
	a.starts = nil
}

func (a *Activity) requireDurationIndex() error {
	if a.offsets == nil {
		return &IndexShapeError{Want: "duration-since-start index", Got: "reset index"}
	}
	if a.starts != nil {
		return &IndexShapeError{Want: "duration-since-start index", Got: "two-level session index"}
	}
	return nil
}

// ElapsedTime returns the last index value, the total time covered by the
// recording.
func (a *Activity) ElapsedTime() (time.Duration, error) {
	if err := a.requireDurationIndex(); err != nil {
		return 0, err
	}
	if len(a.offsets) == 0 {
		return 0, nil
	}
	return a.offsets[len(a.offsets)-1], nil
}

// timeDeltas returns the per-sample time deltas in seconds. The first delta
// equals the first offset, which is zero for a freshly indexed activity.
func (a *Activity) timeDeltas() []float64 {
	out := make([]float64, len(a.offsets))
	for i, off := range a.offsets {
		if i == 0 {
			out[i] = off.Seconds()
			continue
		}
		out[i] = (off - a.offsets[i-1]).Seconds()
	}
	return out
}

// durationDeltas returns the per-sample time deltas as durations. They
// telescope: their sum is exactly the last offset.
func (a *Activity) durationDeltas() []time.Duration {
	out := make([]time.Duration, len(a.offsets))
	for i, off := range a.offsets {
		if i == 0 {
			out[i] = off
			continue
		}
		out[i] = off - a.offsets[i-1]
	}
	return out
}

// MovingTime returns the total elapsed time minus the time deltas of the
// samples classified as stopped. It requires a prior moving column.
func (a *Activity) MovingTime() (time.Duration, error) {
	if err := a.requireDurationIndex(); err != nil {
		return 0, err
	}
	moving, err := a.Col("moving")
	if err != nil {
		return 0, err
	}
	elapsed, err := a.ElapsedTime()
	if err != nil {
		return 0, err
	}
	deltas := a.durationDeltas()
	var stopped time.Duration
	for i, flag := range moving.flags {
		if !flag {
			stopped += deltas[i]
		}
	}
	return elapsed - stopped, nil
}

// Distance returns the total distance in meters: the maximum of the
// cumulative distance column when present, else the NaN-ignoring sum of the
// per-step distance column.
func (a *Activity) Distance() (float64, error) {
	if dist, err := a.Col("dist"); err == nil {
		return finiteMax(dist.values), nil
	}
	if distpos, err := a.Col("distpos"); err == nil {
		return finiteSum(distpos.values), nil
	}
	return 0, &ColumnNotFoundError{Column: "dist"}
}

// MeanSpeed returns the average speed in m/s. With smoothing the speed is
// integrated over the per-sample time deltas and divided by the total
// (moving) time, the correct mean for unevenly sampled series; without
// smoothing it is total distance over total (moving) time, which agrees
// only for uniform sampling. Restricting to moving rows requires a prior
// moving column.
func (a *Activity) MeanSpeed(onlyMoving, smoothing bool) (float64, error) {
	if err := a.requireDurationIndex(); err != nil {
		return 0, err
	}
	speed, err := a.Col("speed")
	if err != nil {
		return 0, err
	}
	var movingFlags []bool
	if onlyMoving {
		moving, err := a.Col("moving")
		if err != nil {
			return 0, err
		}
		movingFlags = moving.flags
	}

	if smoothing {
		deltas := a.timeDeltas()
		total := 0.0
		covered := 0.0
		for i, v := range speed.values {
			if movingFlags != nil && !movingFlags[i] {
				continue
			}
			if !isFinite(v) {
				continue
			}
			covered += v * deltas[i]
			total += deltas[i]
		}
		if total == 0 {
			return 0, nil
		}
		return covered / total, nil
	}

	dist, err := a.Distance()
	if err != nil {
		return 0, err
	}
	var span time.Duration
	if onlyMoving {
		span, err = a.MovingTime()
	} else {
		span, err = a.ElapsedTime()
	}
	if err != nil {
		return 0, err
	}
	if span == 0 {
		return 0, nil
	}
	return dist / span.Seconds(), nil
}

// MeanPace returns the inverse of MeanSpeed as a duration per meter.
func (a *Activity) MeanPace(onlyMoving, smoothing bool) (time.Duration, error) {
	speed, err := a.MeanSpeed(onlyMoving, smoothing)
	if err != nil {
		return 0, err
	}
	if speed == 0 {
		return time.Duration(math.MaxInt64), nil
	}
	return secondsToDuration(1 / speed), nil
}

// MeanHeartRate returns the arithmetic mean of the heart-rate column,
// optionally restricted to moving rows.
func (a *Activity) MeanHeartRate(onlyMoving bool) (float64, error) {
	return a.meanOf("hr", onlyMoving)
}

// MeanCadence returns the arithmetic mean of the cadence column, optionally
// restricted to moving rows.
func (a *Activity) MeanCadence(onlyMoving bool) (float64, error) {
	return a.meanOf("cad", onlyMoving)
}

func (a *Activity) meanOf(name string, onlyMoving bool) (float64, error) {
	col, err := a.Col(name)
	if err != nil {
		return 0, err
	}
	values := col.values
	if onlyMoving {
		moving, err := a.Col("moving")
		if err != nil {
			return 0, err
		}
		masked := make([]float64, 0, len(values))
		for i, v := range values {
			if moving.flags[i] {
				masked = append(masked, v)
			}
		}
		values = masked
	}
	return finiteMean(values), nil
}

// Copy returns a deep copy of the table, metadata included.
func (a *Activity) Copy() *Activity {
	out := &Activity{
		start:    a.start,
		offsets:  append([]time.Duration(nil), a.offsets...),
		byName:   make(map[string]int, len(a.byName)),
		warnings: append([]string(nil), a.warnings...),
	}
	if a.starts != nil {
		out.starts = append([]time.Time(nil), a.starts...)
	}
	for _, c := range a.cols {
		out.setCol(c.copyColumn())
	}
	return out
}

// Slice returns a copy of the rows in [i, j) with the same column layout.
func (a *Activity) Slice(i, j int) *Activity {
	out := &Activity{
		start:  a.start,
		byName: make(map[string]int, len(a.byName)),
	}
	if a.offsets != nil {
		out.offsets = append([]time.Duration(nil), a.offsets[i:j]...)
	}
	if a.starts != nil {
		out.starts = append([]time.Time(nil), a.starts[i:j]...)
	}
	for _, c := range a.cols {
		out.setCol(c.sliceColumn(i, j))
	}
	if a.starts != nil && j > i {
		out.start = a.starts[i]
	}
	return out
}

func diff(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i] - values[i-1]
	}
	return out
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func finiteMean(values []float64) float64 {
	kept := finiteValues(values)
	if len(kept) == 0 {
		return math.NaN()
	}
	return stat.Mean(kept, nil)
}

func finiteSum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		if isFinite(v) {
			total += v
		}
	}
	return total
}

func finiteMax(values []float64) float64 {
	kept := finiteValues(values)
	if len(kept) == 0 {
		return math.NaN()
	}
	return floats.Max(kept)
}

func finiteMin(values []float64) float64 {
	kept := finiteValues(values)
	if len(kept) == 0 {
		return math.NaN()
	}
	return floats.Min(kept)
}
