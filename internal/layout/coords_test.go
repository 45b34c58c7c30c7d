package layout

import (
	"image"
	"math"
	"testing"

	"certify/internal/pkg/errors"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		w, h int
		want image.Point
	}{
		{"origin", Point{0, 0}, 2480, 3508, image.Pt(0, 0)},
		{"far corner", Point{1, 1}, 2480, 3508, image.Pt(2480, 3508)},
		{"center", Point{0.5, 0.5}, 2480, 3508, image.Pt(1240, 1754)},
		{"rounds up", Point{0.5, 0.3333}, 101, 1000, image.Pt(51, 333)},
		{"rounds down", Point{0.123, 0.4444}, 100, 1000, image.Pt(12, 444)},
		{"outside is not clamped", Point{1.5, -0.25}, 200, 400, image.Pt(300, -100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.p, tt.w, tt.h); got != tt.want {
				t.Errorf("Resolve(%v, %d, %d) = %v, want %v", tt.p, tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestResolveGrid(t *testing.T) {
	dims := [][2]int{{1, 1}, {7, 13}, {800, 600}, {3508, 2480}}
	for _, d := range dims {
		for i := 0; i <= 20; i++ {
			for j := 0; j <= 20; j++ {
				p := Point{float64(i) / 20, float64(j) / 20}
				got := Resolve(p, d[0], d[1])
				want := image.Pt(int(math.Round(p.X*float64(d[0]))), int(math.Round(p.Y*float64(d[1]))))
				if got != want {
					t.Fatalf("Resolve(%v, %v) = %v, want %v", p, d, got, want)
				}
			}
		}
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    Point
		wantErr bool
	}{
		{"0.5,0.3", Point{0.5, 0.3}, false},
		{" 0.5 , 0.72 ", Point{0.5, 0.72}, false},
		{"1,0", Point{1, 0}, false},
		{"0.5", Point{}, true},
		{"0.5,0.3,0.1", Point{}, true},
		{"a,0.3", Point{}, true},
		{"0.5,", Point{}, true},
		{"", Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePoint(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				if !errors.IsValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePoint(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
