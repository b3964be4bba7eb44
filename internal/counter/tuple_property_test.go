package counter

import (
	"testing"

	"pgregory.net/rapid"
)

// TestTupleTotalOrderProperty checks that Gt/Eq/Gte form a consistent total
// order over the (counter, use) space, the property invariant I1 depends
// on for "strictly greater lexicographically".
func TestTupleTotalOrderProperty(t *testing.T) {
	tupleGen := rapid.Custom(func(t *rapid.T) Tuple {
		return Tuple{
			Counter: rapid.Int64Range(-1, 1<<16).Draw(t, "counter"),
			Use:     rapid.Int64Range(-1, 1<<8).Draw(t, "use"),
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		a := tupleGen.Draw(t, "a")
		b := tupleGen.Draw(t, "b")

		// Exactly one of Gt(a,b), Eq(a,b), Gt(b,a) holds (trichotomy).
		cases := 0
		if Gt(a, b) {
			cases++
		}
		if Eq(a, b) {
			cases++
		}
		if Gt(b, a) {
			cases++
		}
		if cases != 1 {
			t.Fatalf("trichotomy violated for a=%+v b=%+v", a, b)
		}

		// Gte is Gt or Eq, never both independently false when equal.
		if Eq(a, b) && !Gte(a, b) {
			t.Fatalf("Gte must hold when Eq holds: a=%+v b=%+v", a, b)
		}
	})
}
