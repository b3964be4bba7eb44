// Package counter implements the (yk_counter, yk_use) comparison that
// totally orders OTPs from the same key (spec §4.1). Fields are int64 so
// the record store's -1 "never seen" sentinel (spec §3, invariant I2)
// compares correctly below any real wire value without a special case.
package counter

// Tuple is the (yk_counter, yk_use) ordering pair.
type Tuple struct {
	Counter int64
	Use     int64
}

// Eq reports whether a and b are the same point in the session/use space.
func Eq(a, b Tuple) bool {
	return a.Counter == b.Counter && a.Use == b.Use
}

// Gt reports whether a is strictly later than b: a.Counter > b.Counter, or
// equal counters with a.Use > b.Use.
func Gt(a, b Tuple) bool {
	if a.Counter != b.Counter {
		return a.Counter > b.Counter
	}
	return a.Use > b.Use
}

// Gte reports whether a is later than or equal to b.
func Gte(a, b Tuple) bool {
	return Gt(a, b) || Eq(a, b)
}
