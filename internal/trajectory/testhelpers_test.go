package trajectory

import (
	"testing"

	"github.com/banshee-data/waypoint-updater/internal/spatial"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// linePath builds n waypoints spaced 1 unit apart along +x at speed.
func linePath(t testing.TB, n int, speed float64) *waypoint.Path {
	t.Helper()
	pts := make([]waypoint.Waypoint, n)
	for i := range pts {
		pts[i] = waypoint.Waypoint{X: float64(i), Speed: speed}
	}
	p, err := waypoint.NewPath(pts)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func newLocalizer(t testing.TB, p *waypoint.Path) *Localizer {
	t.Helper()
	ix, err := spatial.NewPathIndex(p)
	if err != nil {
		t.Fatalf("NewPathIndex: %v", err)
	}
	return NewLocalizer(p, ix)
}
