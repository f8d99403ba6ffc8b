// AngelaMos | 2026
// database_test.go

package core

import (
	"testing"
	"time"
)

func TestJitteredDurationSpreadsNormalLifetimes(t *testing.T) {
	base := time.Hour

	for i := 0; i < 50; i++ {
		got := jitteredDuration(base)
		if got < base || got >= base+base/7 {
			t.Fatalf("jittered = %v, want in [%v, %v)", got, base, base+base/7)
		}
	}
}

func TestJitteredDurationPassesThroughUnlimited(t *testing.T) {
	// database/sql treats a non-positive lifetime as unlimited; it must
	// not be jittered, and must never panic.
	for _, base := range []time.Duration{0, -time.Second, 5 * time.Nanosecond} {
		if got := jitteredDuration(base); got != base {
			t.Fatalf("jittered(%v) = %v, want unchanged", base, got)
		}
	}
}
