package event

import (
	"errors"
	"fmt"
)

var ErrInvalidColor = errors.New("invalid event color")

// Color is one of the fixed palette colors. The numeric value is the palette
// position and defines the secondary sort order of events.
type Color int

const (
	Pink Color = iota
	Indigo
	Green
	Blue
	Red
	Zinc
)

// Colors lists the palette in its display order.
var Colors = []Color{Pink, Indigo, Green, Blue, Red, Zinc}

var colorNames = [...]string{
	Pink:   "pink",
	Indigo: "indigo",
	Green:  "green",
	Blue:   "blue",
	Red:    "red",
	Zinc:   "zinc",
}

func (c Color) Valid() bool {
	return c >= Pink && c <= Zinc
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// ParseColor converts a palette name (e.g. "indigo") to a Color.
func ParseColor(name string) (Color, error) {
	for c, n := range colorNames {
		if n == name {
			return Color(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColor, name)
}

// CompareColors orders colors by their palette position.
func CompareColors(a, b Color) int {
	return int(a) - int(b)
}

func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidColor, int(c))
	}
	return []byte(colorNames[c]), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
