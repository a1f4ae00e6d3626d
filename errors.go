package trackframe

import "fmt"

// RequiredColumnError reports a metric computation attempted without one of
// its input columns.
type RequiredColumnError struct {
	Column string
}

func (e *RequiredColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

// ColumnNotFoundError reports a lookup of a column that is not present in
// the table.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// IndexShapeError reports an operation that requires a specific index shape,
// such as elapsed time on a table whose duration index has been reset, or a
// session accessor on a single-activity table.
type IndexShapeError struct {
	Want string
	Got  string
}

func (e *IndexShapeError) Error() string {
	return fmt.Sprintf("index shape mismatch: want %s, got %s", e.Want, e.Got)
}

// KindError reports a column conversion invoked on the wrong column kind.
type KindError struct {
	Op   string
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: want column kind %s, got %s", e.Op, e.Want, e.Got)
}
