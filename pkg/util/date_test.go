package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDay(t *testing.T) {
	for _, s := range []string{"2024-03-01", "2024/03/01", " 2024-03-01 00:00:00 "} {
		got, ok := ParseTime(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if got.Format("2006-01-02") != "2024-03-01" {
			t.Fatalf("unexpected day %v for %q", got, s)
		}
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeInvalid(t *testing.T) {
	if _, ok := ParseTime("yesterday"); ok {
		t.Fatalf("expected failure")
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDaysAfter(t *testing.T) {
	last := time.Date(2024, 2, 27, 15, 30, 0, 0, time.UTC)
	got := DaysAfter(last, 3)
	want := []string{"2024-02-28", "2024-02-29", "2024-03-01"}
	if len(got) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Format("2006-01-02") != want[i] {
			t.Fatalf("day %d: expected %s, got %s", i, want[i], got[i].Format("2006-01-02"))
		}
	}
	if len(DaysAfter(last, 0)) != 0 {
		t.Fatalf("expected empty slice")
	}
}

func TestParseFloat(t *testing.T) {
	if v, ok := ParseFloat(" 1,250.5 "); !ok || v != 1250.5 {
		t.Fatalf("unexpected %v %v", v, ok)
	}
	if _, ok := ParseFloat("n/a"); ok {
		t.Fatalf("expected failure")
	}
}
