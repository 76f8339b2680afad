package analytics

import (
	"testing"
	"time"
)

func fptr(v float64) *float64 { return &v }

func TestDownsampleAveragesBlocks(t *testing.T) {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	points := make([]Point, 600)
	for i := range points {
		points[i] = Point{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Second),
			Values:    map[string]*float64{"rpm": fptr(float64(i))},
		}
	}

	result := Downsample(points, 60, []string{"rpm"})
	if len(result) != 60 {
		t.Fatalf("expected 60 points, got %d", len(result))
	}

	// First block is points 0..9: mean 4.5, middle element index 5.
	first := result[0]
	if got := *first.Values["rpm"]; got != 4.5 {
		t.Fatalf("expected first mean 4.5, got %v", got)
	}
	if want := base.Add(5 * 5 * time.Second); !first.Timestamp.Equal(want) {
		t.Fatalf("expected middle timestamp %v, got %v", want, first.Timestamp)
	}
}

func TestDownsamplePassThroughBelowTarget(t *testing.T) {
	points := []Point{
		{Timestamp: time.Unix(0, 0), Values: map[string]*float64{"rpm": fptr(1)}},
		{Timestamp: time.Unix(5, 0), Values: map[string]*float64{"rpm": fptr(2)}},
	}
	result := Downsample(points, 60, []string{"rpm"})
	if len(result) != 2 {
		t.Fatalf("expected pass-through, got %d points", len(result))
	}
}

func TestDownsampleAllNilBlockStaysNil(t *testing.T) {
	base := time.Unix(0, 0)
	points := make([]Point, 4)
	for i := range points {
		points[i] = Point{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Values:    map[string]*float64{"afr": nil},
		}
	}
	points[0].Values["rpm"] = fptr(10)
	points[1].Values["rpm"] = fptr(20)

	result := Downsample(points, 2, []string{"rpm", "afr"})
	if len(result) != 2 {
		t.Fatalf("expected 2 points, got %d", len(result))
	}
	if result[0].Values["afr"] != nil {
		t.Fatal("all-nil block must stay nil")
	}
	if got := *result[0].Values["rpm"]; got != 15 {
		t.Fatalf("expected rpm mean 15, got %v", got)
	}
	if result[1].Values["rpm"] != nil {
		t.Fatal("block without rpm values must stay nil")
	}
}
