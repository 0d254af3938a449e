package resources

import "testing"

func TestProjectedFootprint(t *testing.T) {
	got := ProjectedFootprint(100_000_000_000, 15, 1.2)
	want := uint64(float64(100_000_000_000) * (1 + 1.0/15) * 1.2)
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestProjectedFootprintGuardsZeroSegmentLength(t *testing.T) {
	got := ProjectedFootprint(1000, 0, 1.0)
	want := uint64(2000)
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}
