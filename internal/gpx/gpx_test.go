package gpx

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const ride = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><name>Morning loop</name></metadata>
  <trk>
    <type>Ride</type>
    <trkseg>
      <trkpt lat="0" lon="0"><ele>10</ele><time>2026-02-01T06:00:00Z</time></trkpt>
      <trkpt lat="0" lon="0.001"><ele>15</ele><time>2026-02-01T06:00:30Z</time></trkpt>
      <trkpt lat="0" lon="0.002"><ele>12</ele><time>2026-02-01T06:01:00Z</time></trkpt>
      <trkpt lat="0" lon="0.002"><ele>12</ele><time>2026-02-01T06:03:00Z</time></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="0" lon="0.003"><ele>20</ele><time>2026-02-01T06:03:30Z</time></trkpt>
      <trkpt lat="0" lon="0.003"><ele>21</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParseAndSummarize(t *testing.T) {
	t.Parallel()
	track, err := Parse(strings.NewReader(ride))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if track.Name != "Morning loop" || track.Type != "Ride" || len(track.Points) != 5 {
		t.Fatalf("unexpected track %+v", track)
	}

	s := track.Summarize()
	if math.Abs(s.Distance-3*111.195) > 0.5 {
		t.Fatalf("unexpected distance %v", s.Distance)
	}
	if s.ElevationGain != 13 {
		t.Fatalf("expected 13 m of climbing, got %v", s.ElevationGain)
	}
	if s.ElapsedTime != 210*time.Second || s.MovingTime != 90*time.Second {
		t.Fatalf("expected 210s elapsed and 90s moving, got %v / %v", s.ElapsedTime, s.MovingTime)
	}
}

func TestDraftConvertsToActivity(t *testing.T) {
	t.Parallel()
	track, err := Parse(strings.NewReader(ride))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	draft := track.Draft("", "", "UTC")
	if draft.Name != "Morning loop" || draft.Type != "Ride" || draft.Seconds != 90 || draft.ElapsedSeconds != 210 {
		t.Fatalf("unexpected draft %+v", draft)
	}

	a, err := draft.ToActivity(time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("to activity: %v", err)
	}
	if a.MovingTime != 90 || a.ElapsedTime != 210 || math.Abs(a.Distance-333.585) > 0.5 || a.TotalElevation != 13 {
		t.Fatalf("unexpected activity %+v", a)
	}
	if !a.StartDate.Equal(time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", a.StartDate)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	if _, err := Parse(strings.NewReader(`<gpx><trk><trkseg></trkseg></trk></gpx>`)); !errors.Is(err, ErrNoTrack) {
		t.Fatalf("expected ErrNoTrack, got %v", err)
	}
	if _, err := Parse(strings.NewReader(`not xml`)); err == nil {
		t.Fatalf("expected decode error")
	}
	bad := `<gpx><trk><trkseg><trkpt lat="0" lon="0"><time>yesterday</time></trkpt></trkseg></trk></gpx>`
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected time parse error")
	}
}

func TestDistance(t *testing.T) {
	t.Parallel()
	// Kochi to Thiruvananthapuram, roughly 173 km as the crow flies.
	d := Distance(9.9312, 76.2673, 8.5241, 76.9366)
	if d < 165000 || d > 180000 {
		t.Fatalf("unexpected distance %v", d)
	}
	if Distance(10, 76, 10, 76) != 0 {
		t.Fatalf("expected zero distance for identical points")
	}
}
