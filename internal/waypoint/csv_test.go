package waypoint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := `x,y,z,speed
0,0,0,11.1
1.5, 2, 0.1, 11.1
# comment rows are skipped
3,4,0.2,0
`
	pts, err := ReadCSV(strings.NewReader(in), "mps")
	require.NoError(t, err)

	want := []Waypoint{
		{X: 0, Y: 0, Z: 0, Speed: 11.1},
		{X: 1.5, Y: 2, Z: 0.1, Speed: 11.1},
		{X: 3, Y: 4, Z: 0.2, Speed: 0},
	}
	if diff := cmp.Diff(want, pts); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_ConvertsUnits(t *testing.T) {
	pts, err := ReadCSV(strings.NewReader("0,0,0,36\n1,0,0,18\n"), "kph")
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.InDelta(t, 10.0, pts[0].Speed, 1e-9)
	assert.InDelta(t, 5.0, pts[1].Speed, 1e-9)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		units string
	}{
		{"bad units", "0,0,0,1\n", "furlongs"},
		{"empty", "", "mps"},
		{"header only", "x,y,z,speed\n", "mps"},
		{"wrong field count", "0,0,1\n", "mps"},
		{"non numeric body", "0,0,0,1\n0,a,0,1\n", "mps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), tt.units)
			assert.Error(t, err)
		})
	}
}

func TestWriteCSV_ReadBack(t *testing.T) {
	pts := []Waypoint{{X: 1.25, Y: -3, Z: 0.5, Speed: 8.9}, {X: 2, Y: -3, Z: 0.5, Speed: 8.9}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, pts))

	got, err := ReadCSV(&buf, "mps")
	require.NoError(t, err)
	if diff := cmp.Diff(pts, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
