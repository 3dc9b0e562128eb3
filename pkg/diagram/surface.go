package diagram

import "math"

// Measurements maps node IDs to their rendered dimensions.
// A node missing from the map has not been measured yet.
type Measurements map[string]Dimensions

// FindNode returns the measured dimensions of the node with the given ID.
// Entries with negative or NaN sizes are reported as not measured.
func (m Measurements) FindNode(id string) (Dimensions, bool) {
	d, ok := m[id]
	if !ok {
		return Dimensions{}, false
	}
	if !validSize(d.Width) || !validSize(d.Height) {
		return Dimensions{}, false
	}
	return d, true
}

func validSize(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
