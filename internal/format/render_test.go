package format

import "testing"

func TestRenderSubstitutesInOrder(t *testing.T) {
	got, positions := Render("tick %d at %s", []string{"7", "dawn"})
	want := "tick 7 at dawn"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if len(positions) != 2 {
		t.Fatalf("positions = %+v, want 2 entries", positions)
	}
	if got[positions[0].Start:positions[0].End] != "7" {
		t.Errorf("position 0 = %q, want %q", got[positions[0].Start:positions[0].End], "7")
	}
	if got[positions[1].Start:positions[1].End] != "dawn" {
		t.Errorf("position 1 = %q, want %q", got[positions[1].Start:positions[1].End], "dawn")
	}
}

func TestRenderCollapsesDoublePercent(t *testing.T) {
	got, _ := Render("100%% done, %d left", []string{"3"})
	want := "100% done, 3 left"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderNoSpecifiers(t *testing.T) {
	got, positions := Render("no substitutions here", nil)
	if got != "no substitutions here" || len(positions) != 0 {
		t.Fatalf("got %q / %+v", got, positions)
	}
}
