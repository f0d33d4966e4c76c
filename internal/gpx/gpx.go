// Package gpx imports GPS tracks recorded in GPX 1.1 files.
package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/nmiodice/riders-activity/internal/activity"
	"github.com/nmiodice/riders-activity/internal/units"
)

const earthRadius = 6371000 // meters

// stoppedSpeed is the speed in m/s below which a segment counts as a pause.
const stoppedSpeed = 0.5

var ErrNoTrack = errors.New("gpx file has no timed track points")

type gpxFile struct {
	XMLName  xml.Name `xml:"gpx"`
	Metadata struct {
		Name string `xml:"name"`
	} `xml:"metadata"`
	Tracks []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name     string `xml:"name"`
	Type     string `xml:"type"`
	Segments []struct {
		Points []gpxPoint `xml:"trkpt"`
	} `xml:"trkseg"`
}

type gpxPoint struct {
	Lat       float64  `xml:"lat,attr"`
	Lon       float64  `xml:"lon,attr"`
	Elevation *float64 `xml:"ele"`
	Time      string   `xml:"time"`
}

type Point struct {
	Lat       float64
	Lon       float64
	Elevation *float64
	Time      time.Time
}

// Track is the flattened list of timed points of every track segment.
type Track struct {
	Name   string
	Type   string
	Points []Point
}

type Summary struct {
	Start         time.Time
	Distance      float64 // meters
	ElevationGain float64 // meters
	ElapsedTime   time.Duration
	MovingTime    time.Duration
}

// Parse reads a GPX document. Points without a timestamp are skipped.
func Parse(r io.Reader) (*Track, error) {
	var f gpxFile
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding gpx: %w", err)
	}

	track := &Track{Name: f.Metadata.Name}
	for _, trk := range f.Tracks {
		if track.Name == "" {
			track.Name = strings.TrimSpace(trk.Name)
		}
		if track.Type == "" {
			track.Type = strings.TrimSpace(trk.Type)
		}
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				if p.Time == "" {
					continue
				}
				t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(p.Time))
				if err != nil {
					return nil, fmt.Errorf("track point time %q: %w", p.Time, err)
				}
				track.Points = append(track.Points, Point{
					Lat:       p.Lat,
					Lon:       p.Lon,
					Elevation: p.Elevation,
					Time:      t,
				})
			}
		}
	}

	if len(track.Points) < 2 {
		return nil, ErrNoTrack
	}
	return track, nil
}

// Summarize computes distance, climbing and timing over the whole track.
func (t *Track) Summarize() Summary {
	var s Summary
	if len(t.Points) == 0 {
		return s
	}

	s.Start = t.Points[0].Time
	s.ElapsedTime = t.Points[len(t.Points)-1].Time.Sub(s.Start)

	for i := 1; i < len(t.Points); i++ {
		prev, cur := t.Points[i-1], t.Points[i]

		d := Distance(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		s.Distance += d

		if prev.Elevation != nil && cur.Elevation != nil && *cur.Elevation > *prev.Elevation {
			s.ElevationGain += *cur.Elevation - *prev.Elevation
		}

		dt := cur.Time.Sub(prev.Time)
		if dt > 0 && d/dt.Seconds() >= stoppedSpeed {
			s.MovingTime += dt
		}
	}
	return s
}

// Draft turns the track into an activity draft in meters and seconds. Empty
// name and sportType fall back to the values recorded in the file.
func (t *Track) Draft(name, sportType, timezone string) activity.Draft {
	s := t.Summarize()
	if name == "" {
		name = t.Name
	}
	if sportType == "" {
		sportType = t.Type
	}

	return activity.Draft{
		Name:           name,
		Type:           sportType,
		Distance:       s.Distance,
		DistanceUnit:   units.Meters,
		Seconds:        math.Round(s.MovingTime.Seconds()),
		ElapsedSeconds: math.Round(s.ElapsedTime.Seconds()),
		Elevation:      s.ElevationGain,
		ElevationUnit:  units.ElevationMeters,
		Start:          s.Start,
		Timezone:       timezone,
	}
}

// Distance is the great circle distance in meters between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
