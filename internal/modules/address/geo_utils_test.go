package address

import (
	"math"
	"testing"

	"ridesafe/internal/types"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 34.0901, Lng: -118.4065},
			b:         types.Point{Lat: 34.0901, Lng: -118.4065},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Beverly Hills to Santa Monica (~11km)",
			a:         types.Point{Lat: 34.0736, Lng: -118.4004},
			b:         types.Point{Lat: 34.0195, Lng: -118.4912},
			wantKm:    10.3,
			tolerance: 1.0,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := types.Point{Lat: 25.0, Lng: 121.0}
	b := types.Point{Lat: 26.0, Lng: 122.0}
	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestInsertionSort_Stable(t *testing.T) {
	type item struct {
		key  int
		name string
	}
	items := []item{{3, "c"}, {1, "a1"}, {2, "b"}, {1, "a2"}}
	insertionSort(items, func(x, y item) bool { return x.key < y.key })

	want := []string{"a1", "a2", "b", "c"}
	for i, w := range want {
		if items[i].name != w {
			t.Fatalf("unexpected order: %v", items)
		}
	}
}

func TestInsertionSort_Empty(t *testing.T) {
	var items []int
	insertionSort(items, func(a, b int) bool { return a < b })
}
