package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBarRendersCounts(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "researching", 4, true)

	b.Set(2)
	b.Set(4)
	b.Done()

	out := buf.String()
	if !strings.Contains(out, "2/4") {
		t.Errorf("missing midpoint render: %q", out)
	}
	if !strings.Contains(out, "4/4 (100%)") {
		t.Errorf("missing final render: %q", out)
	}
	if !strings.Contains(out, "done: 4 items") {
		t.Errorf("missing done line: %q", out)
	}
}

func TestBarThrottlesRedraw(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "x", 1000, true)

	for i := 1; i < 1000; i++ {
		b.Set(i)
	}

	// Interior updates inside the throttle window draw nothing.
	if n := strings.Count(buf.String(), "\r"); n > 3 {
		t.Errorf("expected throttled redraws, got %d", n)
	}
}

func TestBarIgnoresRegression(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "x", 10, true)
	b.Set(5)
	before := buf.Len()
	b.Set(3)
	if buf.Len() != before {
		t.Error("regressing Set should not redraw")
	}
}

func TestDisabledBarWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "x", 10, false)
	b.Set(10)
	b.Done()
	if buf.Len() != 0 {
		t.Errorf("disabled bar wrote %q", buf.String())
	}
}

func TestShortDuration(t *testing.T) {
	cases := map[time.Duration]string{
		500 * time.Millisecond: "500ms",
		12 * time.Second:       "12.0s",
		90 * time.Second:       "1.5m",
		2 * time.Hour:          "2.0h",
	}
	for in, want := range cases {
		if got := shortDuration(in); got != want {
			t.Errorf("shortDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
