package smf

import (
	"fmt"
	"strings"
)

// Axis is a signed coordinate axis.
type Axis uint32

const (
	AxisPositiveX Axis = 0
	AxisNegativeX Axis = 1
	AxisPositiveY Axis = 2
	AxisNegativeY Axis = 3
	AxisPositiveZ Axis = 4
	AxisNegativeZ Axis = 5
)

var axisNames = [...]string{"+x", "-x", "+y", "-y", "+z", "-z"}

// String returns the signed axis name, e.g. "+x".
func (a Axis) String() string {
	if int(a) < len(axisNames) {
		return axisNames[a]
	}
	return fmt.Sprintf("Unknown(%d)", uint32(a))
}

// Valid reports whether a is one of the six signed axes.
func (a Axis) Valid() bool {
	return int(a) < len(axisNames)
}

// base returns the unsigned axis (0 = x, 1 = y, 2 = z).
func (a Axis) base() int {
	return int(a) / 2
}

// ParseAxis parses a signed axis name.
func ParseAxis(name string) (Axis, error) {
	for i, n := range axisNames {
		if n == name {
			return Axis(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognized axis %q", ErrInvalidCoordinates, name)
}

// WindingOrder is the vertex order that defines a front face.
type WindingOrder uint32

const (
	WindingClockwise        WindingOrder = 0
	WindingCounterClockwise WindingOrder = 1
)

// String returns the winding order name.
func (w WindingOrder) String() string {
	switch w {
	case WindingClockwise:
		return "clockwise"
	case WindingCounterClockwise:
		return "counter-clockwise"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(w))
	}
}

// ParseWindingOrder parses a winding order name.
func ParseWindingOrder(name string) (WindingOrder, error) {
	switch name {
	case "clockwise":
		return WindingClockwise, nil
	case "counter-clockwise":
		return WindingCounterClockwise, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized winding order %q", ErrInvalidCoordinates, name)
	}
}

// CoordinateSystem is an orthogonal right/up/forward axis triple plus a
// face winding order.
type CoordinateSystem struct {
	right   Axis
	up      Axis
	forward Axis
	winding WindingOrder
}

// NewCoordinateSystem creates a coordinate system. The axes must be
// mutually perpendicular.
func NewCoordinateSystem(right, up, forward Axis, winding WindingOrder) (CoordinateSystem, error) {
	for _, a := range []Axis{right, up, forward} {
		if !a.Valid() {
			return CoordinateSystem{}, fmt.Errorf("%w: invalid axis %d", ErrInvalidCoordinates, uint32(a))
		}
	}
	if winding != WindingClockwise && winding != WindingCounterClockwise {
		return CoordinateSystem{}, fmt.Errorf("%w: invalid winding order %d", ErrInvalidCoordinates, uint32(winding))
	}
	if right.base() == up.base() || right.base() == forward.base() || up.base() == forward.base() {
		return CoordinateSystem{}, fmt.Errorf("%w: axes must be perpendicular: %s %s %s", ErrInvalidCoordinates, right, up, forward)
	}
	return CoordinateSystem{right: right, up: up, forward: forward, winding: winding}, nil
}

// DefaultCoordinateSystem returns +x right, +y up, -z forward, counter-clockwise.
func DefaultCoordinateSystem() CoordinateSystem {
	return CoordinateSystem{
		right:   AxisPositiveX,
		up:      AxisPositiveY,
		forward: AxisNegativeZ,
		winding: WindingCounterClockwise,
	}
}

// ParseCoordinateSystem parses the four-field form "<right> <up> <forward> <winding>".
func ParseCoordinateSystem(text string) (CoordinateSystem, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 {
		return CoordinateSystem{}, fmt.Errorf("%w: expected <axis> <axis> <axis> <winding>, got %q", ErrInvalidCoordinates, text)
	}
	var axes [3]Axis
	for i := 0; i < 3; i++ {
		a, err := ParseAxis(fields[i])
		if err != nil {
			return CoordinateSystem{}, err
		}
		axes[i] = a
	}
	w, err := ParseWindingOrder(fields[3])
	if err != nil {
		return CoordinateSystem{}, err
	}
	return NewCoordinateSystem(axes[0], axes[1], axes[2], w)
}

func (c CoordinateSystem) Right() Axis { return c.right }
func (c CoordinateSystem) Up() Axis { return c.up }
func (c CoordinateSystem) Forward() Axis { return c.forward }
func (c CoordinateSystem) Winding() WindingOrder { return c.winding }

// String returns the coordinate system in text-header form.
func (c CoordinateSystem) String() string {
	return fmt.Sprintf("%s %s %s %s", c.right, c.up, c.forward, c.winding)
}
