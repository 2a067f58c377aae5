package refetch

// Reducer merges a newly decoded payload into previously held data. It
// receives the payload and the current data; prev is nil on the first call
// and when a trigger requested IgnorePreviousData.
//
// The second return reports whether the result replaces the held data:
// false retains the previous value unchanged, and any value returned with
// true (zero values included) becomes the new data.
type Reducer func(next, prev any) (any, bool)

// Replace is the default reduction: each payload replaces the held data.
func Replace(next, _ any) (any, bool) {
	return next, true
}
