package geo

import (
	"math"
	"testing"
)

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, math.Pi},
		{2 * math.Pi, 0},
	}
	for _, tt := range tests {
		got := WrapAngle(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("WrapAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got <= -math.Pi || got > math.Pi+1e-9 {
			t.Errorf("WrapAngle(%v) = %v out of (-pi, pi]", tt.in, got)
		}
	}
}

func TestCompassWorldRoundTrip(t *testing.T) {
	for deg := 0.0; deg < 360; deg += 1.0 {
		rad := CompassToWorld(deg)
		back := WorldToCompass(rad)
		diff := math.Mod(back-deg+540, 360) - 180
		if math.Abs(diff) > 1e-6 {
			t.Fatalf("round trip failed for %v: got back %v (diff %v)", deg, back, diff)
		}
	}
}

func TestCompassToWorldCardinals(t *testing.T) {
	// North (0 deg) should map to +y axis (pi/2) in world radians.
	if got := CompassToWorld(0); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("CompassToWorld(0) = %v, want pi/2", got)
	}
	// East (90 deg compass) should map to world 0 (+x).
	if got := CompassToWorld(90); math.Abs(got) > 1e-9 {
		t.Errorf("CompassToWorld(90) = %v, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 1) != 1 {
		t.Error("clamp high failed")
	}
	if Clamp(-5, 0, 1) != 0 {
		t.Error("clamp low failed")
	}
	if Clamp(0.5, 0, 1) != 0.5 {
		t.Error("clamp passthrough failed")
	}
}

func TestSegmentCircleIntersects(t *testing.T) {
	// Segment passes straight through the circle.
	if !SegmentCircleIntersects(0, 0, 1000, 0, 500, 0, 100) {
		t.Error("expected intersection through center")
	}
	// Segment well clear of the circle.
	if SegmentCircleIntersects(0, 0, 1000, 0, 500, 1000, 100) {
		t.Error("expected no intersection")
	}
	// Degenerate point-segment inside the circle.
	if !SegmentCircleIntersects(500, 0, 500, 0, 500, 0, 10) {
		t.Error("expected degenerate segment inside circle to intersect")
	}
}
