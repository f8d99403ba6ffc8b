// AngelaMos | 2026
// config_test.go

package config

import (
	"strings"
	"testing"
)

// Load is once-per-process; both calls here share that one attempt, which
// is exactly the behavior under test.
func TestFailedLoadStaysFailed(t *testing.T) {
	first, firstErr := Load("testdata/does-not-exist.yaml")
	if firstErr == nil {
		t.Fatalf("Load of a missing config file must fail, got %+v", first)
	}
	if !strings.Contains(firstErr.Error(), "load config file") {
		t.Fatalf("error = %v, want config file load failure", firstErr)
	}

	second, secondErr := Load("testdata/does-not-exist.yaml")
	if secondErr == nil {
		t.Fatalf("repeated Load after a failure returned %+v, want the error again", second)
	}
	if second != nil {
		t.Fatalf("repeated Load must not hand out a nil-validated config")
	}
}
