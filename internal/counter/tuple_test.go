package counter

import "testing"

func TestSentinelOrdering(t *testing.T) {
	sentinel := Tuple{Counter: -1, Use: -1}
	first := Tuple{Counter: 0, Use: 0}
	if !Gt(first, sentinel) {
		t.Fatal("first real OTP must sort above the never-seen sentinel")
	}
	if Gt(sentinel, first) {
		t.Fatal("sentinel must never outrank a real value")
	}
}

func TestOrderingAcrossSessions(t *testing.T) {
	a := Tuple{Counter: 1, Use: 9}
	b := Tuple{Counter: 2, Use: 0}
	if !Gt(b, a) {
		t.Fatal("counter advance must outrank any use value in the prior session")
	}
}
