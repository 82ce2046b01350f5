package upstream

// Outcome is the result of one optional fetch: either a value or an explicit
// absence. The zero Outcome is absent with no error, which is what a job that
// was never requested looks like.
type Outcome[T any] struct {
	Value   T
	Present bool
	// Err records why the value is absent, for logging only.
	Err error
}

// Found wraps a successfully fetched value.
func Found[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Present: true}
}

// Absent marks a fetch that produced nothing.
func Absent[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}

// Get returns the value and whether it is present.
func (o Outcome[T]) Get() (T, bool) {
	return o.Value, o.Present
}
