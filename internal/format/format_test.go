package format

import (
	"reflect"
	"testing"
)

func TestScanCountsSpecifiersAndCollapsesEscapes(t *testing.T) {
	cases := []struct {
		format string
		want   int
	}{
		{"no specifiers here", 0},
		{"100%% done", 0},
		{"%d items at %3.1f_V", 2},
		{"%s: %u (%x)", 3},
		{"%%literal %d %%", 1},
	}
	for _, c := range cases {
		if got := Count(c.format); got != c.want {
			t.Errorf("Count(%q) = %d, want %d", c.format, got, c.want)
		}
	}
}

func TestParseArgNameAndUnit(t *testing.T) {
	got := ParseArgNameAndUnit("voltage=%3.1f_V intensity=%dmA")
	want := []NameAndUnit{
		{Name: "voltage", Unit: "V"},
		{Name: "intensity", Unit: "mA"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseArgNameAndUnitNoHints(t *testing.T) {
	if got := ParseArgNameAndUnit("plain message with %d and %s"); got != nil {
		t.Fatalf("expected no hints, got %+v", got)
	}
}

func TestParseArgNameAndUnitNoUnit(t *testing.T) {
	got := ParseArgNameAndUnit("count=%d")
	want := []NameAndUnit{{Name: "count", Unit: ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
