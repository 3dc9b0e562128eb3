package diagram

import (
	"strings"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// Direction is the growth axis of a layered layout.
type Direction string

const (
	// LeftToRight grows layers rightward.
	LeftToRight Direction = "LR"
	// TopToBottom grows layers downward.
	TopToBottom Direction = "TB"
)

// DefaultDirection is used when no direction has been chosen yet.
const DefaultDirection = LeftToRight

// ParseDirection accepts LR/TB and their long forms, case-insensitive.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lr", "left-to-right", "horizontal":
		return LeftToRight, nil
	case "tb", "top-to-bottom", "vertical":
		return TopToBottom, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q (must be LR or TB)", s)
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == LeftToRight || d == TopToBottom
}

// OrDefault returns d, or DefaultDirection when d is empty.
func (d Direction) OrDefault() Direction {
	if d == "" {
		return DefaultDirection
	}
	return d
}

// IsHorizontal reports whether layers grow along the x axis.
func (d Direction) IsHorizontal() bool { return d == LeftToRight }

// Flip returns the other direction.
func (d Direction) Flip() Direction {
	if d.IsHorizontal() {
		return TopToBottom
	}
	return LeftToRight
}

// Sides returns the connector sides implied by d.
// Left-to-right anchors outgoing edges on the right and incoming on the left;
// top-to-bottom uses bottom and top.
func (d Direction) Sides() (source, target Side) {
	if d.IsHorizontal() {
		return SideRight, SideLeft
	}
	return SideBottom, SideTop
}

// String returns the long name, e.g. "left-to-right".
func (d Direction) String() string {
	switch d {
	case LeftToRight:
		return "left-to-right"
	case TopToBottom:
		return "top-to-bottom"
	}
	return string(d)
}
