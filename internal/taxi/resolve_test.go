package taxi

import (
	"sort"
	"testing"
)

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMissingFiles(t *testing.T) {
	t.Run("difference", func(t *testing.T) {
		got := MissingFiles([]string{"a", "b", "c"}, []string{"b"})
		if !equal(sorted(got), []string{"a", "c"}) {
			t.Fatalf("got=%v", got)
		}
	})

	t.Run("empty available", func(t *testing.T) {
		if got := MissingFiles(nil, []string{"x"}); len(got) != 0 {
			t.Fatalf("got=%v", got)
		}
	})

	t.Run("empty processed", func(t *testing.T) {
		got := MissingFiles([]string{"x"}, nil)
		if !equal(got, []string{"x"}) {
			t.Fatalf("got=%v", got)
		}
	})

	t.Run("both empty", func(t *testing.T) {
		if got := MissingFiles(nil, nil); len(got) != 0 {
			t.Fatalf("got=%v", got)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		got := MissingFiles([]string{"a", "a", "b"}, nil)
		if !equal(sorted(got), []string{"a", "b"}) {
			t.Fatalf("got=%v", got)
		}
	})

	t.Run("no normalization", func(t *testing.T) {
		got := MissingFiles([]string{"A"}, []string{"a"})
		if !equal(got, []string{"A"}) {
			t.Fatalf("got=%v", got)
		}
	})

	t.Run("feeding the result back drains the set", func(t *testing.T) {
		available := []string{"a", "b", "c", "d"}
		processed := []string{"b"}
		missing := MissingFiles(available, processed)
		if got := MissingFiles(available, append(processed, missing...)); len(got) != 0 {
			t.Fatalf("got=%v", got)
		}
	})
}
