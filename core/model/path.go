package model

import (
	"encoding/json"
	"fmt"
)

// Coordinate is one latitude/longitude waypoint of a flight path.
type Coordinate struct {
	Lat float64
	Lon float64
}

// FlightPath is an ordered sequence of waypoints.
type FlightPath []Coordinate

// MalformedPathError reports a path string that could not be decoded.
// Callers may choose to ignore it, but the core never hides it.
type MalformedPathError struct {
	Raw string
	Err error
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed flight path %q: %v", e.Raw, e.Err)
}

func (e *MalformedPathError) Unwrap() error { return e.Err }

// ParsePath decodes the persisted JSON form of a flight path. Accepted
// encodings are a list of [lat, lon] pairs or a single bare pair. An empty
// string is a valid absent path.
func ParsePath(raw string) (FlightPath, error) {
	if raw == "" {
		return nil, nil
	}
	var pairs [][]float64
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		// Legacy rows store a single bare pair.
		var single []float64
		if serr := json.Unmarshal([]byte(raw), &single); serr != nil {
			return nil, &MalformedPathError{Raw: raw, Err: err}
		}
		pairs = [][]float64{single}
	}
	path := make(FlightPath, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, &MalformedPathError{Raw: raw, Err: fmt.Errorf("waypoint %d has %d elements, want 2", i, len(p))}
		}
		path = append(path, Coordinate{Lat: p[0], Lon: p[1]})
	}
	return path, nil
}

// Encode returns the persisted JSON form of the path. A nil path encodes to
// the empty string.
func (p FlightPath) Encode() (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	pairs := make([][]float64, len(p))
	for i, c := range p {
		pairs[i] = []float64{c.Lat, c.Lon}
	}
	b, err := json.Marshal(pairs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
