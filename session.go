package trackframe

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Concat merges single-activity tables into one session table under a
// two-level (activity start, duration-since-start) index. Activities are
// ordered by start time and their columns unioned; rows of an activity that
// lacks a column are filled with the column kind's missing marker.
func Concat(activities ...*Activity) (*Activity, error) {
	if len(activities) == 0 {
		return nil, fmt.Errorf("no activities to concatenate")
	}
	sorted := make([]*Activity, len(activities))
	copy(sorted, activities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })

	total := 0
	for _, act := range sorted {
		if err := act.requireDurationIndex(); err != nil {
			return nil, err
		}
		total += act.Len()
	}

	// Column union in first-seen order, kinds taken from the first owner.
	var order []string
	kinds := make(map[string]Kind)
	for _, act := range sorted {
		for _, c := range act.cols {
			if _, ok := kinds[c.name]; !ok {
				kinds[c.name] = c.kind
				order = append(order, c.name)
			}
		}
	}

	out := &Activity{
		start:   sorted[0].start,
		offsets: make([]time.Duration, 0, total),
		starts:  make([]time.Time, 0, total),
		byName:  make(map[string]int),
	}
	for _, act := range sorted {
		out.offsets = append(out.offsets, act.offsets...)
		for i := 0; i < act.Len(); i++ {
			out.starts = append(out.starts, act.start)
		}
	}

	for _, name := range order {
		out.setCol(stitchColumn(name, kinds[name], sorted, total))
	}
	return out, nil
}

func stitchColumn(name string, kind Kind, activities []*Activity, total int) *MeasureColumn {
	col := emptyColumn(name, kind, total)
	row := 0
	allSidecars := kind == KindGradient
	for _, act := range activities {
		n := act.Len()
		i, ok := act.byName[name]
		if !ok {
			row += n
			allSidecars = false
			continue
		}
		src := act.cols[i]
		switch kind {
		case KindMoving:
			copy(col.flags[row:row+n], src.flags)
		case KindHeartZone:
			copy(col.labels[row:row+n], src.labels)
		default:
			copy(col.values[row:row+n], src.values)
			if kind == KindGradient {
				if src.rise == nil {
					allSidecars = false
				} else {
					copy(col.rise[row:row+n], src.rise)
					copy(col.run[row:row+n], src.run)
				}
			}
		}
		row += n
	}
	if kind == KindGradient && !allSidecars {
		col.rise, col.run = nil, nil
	}
	return col
}

func emptyColumn(name string, kind Kind, n int) *MeasureColumn {
	col := &MeasureColumn{kind: kind, name: name, unit: kindUnits[kind]}
	switch kind {
	case KindMoving:
		col.flags = make([]bool, n)
	case KindHeartZone:
		col.labels = make([]string, n)
		for i := range col.labels {
			col.labels[i] = UnclassifiedZone
		}
	default:
		col.values = nanSlice(n)
		if kind == KindGradient {
			col.rise = nanSlice(n)
			col.run = nanSlice(n)
		}
	}
	return col
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Session applies metrics engine operations independently to every activity
// of a two-level-indexed table and scatters the results back into the
// parent rows. Activity count and per-activity row counts are invariant
// across every operation; only the column count grows.
type Session struct {
	act *Activity
}

// Session returns the aggregation accessor. It requires the exact two-level
// (start, duration) index shape produced by Concat.
func (a *Activity) Session() (*Session, error) {
	if a.offsets == nil {
		return nil, &IndexShapeError{Want: "two-level (start, duration) index", Got: "reset index"}
	}
	if a.starts == nil {
		return nil, &IndexShapeError{Want: "two-level (start, duration) index", Got: "single-level duration index"}
	}
	return &Session{act: a}, nil
}

// Count returns the number of activities, the distinct values of the outer
// index level.
func (s *Session) Count() int {
	return len(s.Starts())
}

// Starts returns the distinct activity start timestamps in index order.
func (s *Session) Starts() []time.Time {
	var out []time.Time
	for i, ts := range s.act.starts {
		if i == 0 || !ts.Equal(s.act.starts[i-1]) {
			out = append(out, ts)
		}
	}
	return out
}

// bounds returns the contiguous row range [i, j) of the activity starting
// at ts.
func (s *Session) bounds(ts time.Time) (int, int) {
	i := 0
	for i < len(s.act.starts) && !s.act.starts[i].Equal(ts) {
		i++
	}
	j := i
	for j < len(s.act.starts) && s.act.starts[j].Equal(ts) {
		j++
	}
	return i, j
}

// extract returns the single-activity sub-table of the rows in [i, j).
func (s *Session) extract(i, j int) *Activity {
	sub := s.act.Slice(i, j)
	sub.starts = nil
	return sub
}

// Activity returns a copy of the single-activity sub-table starting at ts.
func (s *Session) Activity(ts time.Time) (*Activity, error) {
	i, j := s.bounds(ts)
	if i == j {
		return nil, fmt.Errorf("no activity starting at %s", ts)
	}
	return s.extract(i, j), nil
}

// apply runs the metric over every activity and scatters each resulting
// column back into the parent at the activity's row positions.
func (s *Session) apply(fn func(Computer) (*MeasureColumn, error)) error {
	for _, ts := range s.Starts() {
		i, j := s.bounds(ts)
		col, err := fn(s.extract(i, j).Compute())
		if err != nil {
			return err
		}
		s.scatter(col, i, j)
	}
	return nil
}

func (s *Session) scatter(col *MeasureColumn, i, j int) {
	idx, ok := s.act.byName[col.name]
	if !ok {
		s.act.setCol(emptyColumn(col.name, col.kind, s.act.Len()))
		idx = s.act.byName[col.name]
	}
	dst := s.act.cols[idx]
	switch col.kind {
	case KindMoving:
		copy(dst.flags[i:j], col.flags)
	case KindHeartZone:
		copy(dst.labels[i:j], col.labels)
	default:
		copy(dst.values[i:j], col.values)
		if col.kind == KindGradient {
			// Scattered values lose their sidecars; Col re-derives them
			// from the parent's alt/dist on access.
			dst.rise, dst.run = nil, nil
		}
	}
}

// Distance computes the per-step and cumulative distance columns for every
// activity. Two columns are added: distpos and dist.
func (s *Session) Distance(correctDistance bool) error {
	for _, ts := range s.Starts() {
		i, j := s.bounds(ts)
		distpos, err := s.extract(i, j).Compute().Distance(correctDistance)
		if err != nil {
			return err
		}
		dist, err := distpos.ToDistance()
		if err != nil {
			return err
		}
		s.scatter(distpos, i, j)
		s.scatter(dist, i, j)
	}
	return nil
}

// Speed computes the speed column for every activity.
func (s *Session) Speed(fromDistances bool) error {
	return s.apply(func(c Computer) (*MeasureColumn, error) {
		return c.Speed(fromDistances)
	})
}

// VerticalSpeed computes the VAM column for every activity.
func (s *Session) VerticalSpeed() error {
	return s.apply(func(c Computer) (*MeasureColumn, error) {
		return c.VerticalSpeed()
	})
}

// Gradient computes the gradient column for every activity.
func (s *Session) Gradient() error {
	return s.apply(func(c Computer) (*MeasureColumn, error) {
		return c.Gradient()
	})
}

// Pace computes the pace column for every activity.
func (s *Session) Pace() error {
	return s.apply(func(c Computer) (*MeasureColumn, error) {
		return c.Pace()
	})
}

// HeartZone computes the heart-rate zone labels for every activity.
func (s *Session) HeartZone(bins []float64, labels []string) error {
	return s.apply(func(c Computer) (*MeasureColumn, error) {
		return c.HeartZone(bins, labels)
	})
}

// OnlyMoving computes the moving classification for every activity.
func (s *Session) OnlyMoving(threshold float64) error {
	return s.apply(func(c Computer) (*MeasureColumn, error) {
		return c.OnlyMoving(threshold)
	})
}
