package pnf

import (
	"fmt"
	"strings"
)

// ColumnType is the nominal direction of a column.
type ColumnType string

const (
	ColumnX     ColumnType = "X"
	ColumnO     ColumnType = "O"
	ColumnMixed ColumnType = "MIXED"
)

// Column is a run of boxes in one nominal direction. Boxes keep insertion
// order and no two boxes share a price.
type Column struct {
	columnType ColumnType
	boxes      []Box

	// cached extremes, valid when len(boxes) > 0
	highest float64
	lowest  float64
}

// NewColumn creates an empty column of the given type.
func NewColumn(columnType ColumnType) *Column {
	return &Column{columnType: columnType}
}

// Type returns the column's nominal direction.
func (c *Column) Type() ColumnType { return c.columnType }

// AddBox appends a box unless one already exists at that price.
func (c *Column) AddBox(price float64, boxType BoxType) bool {
	return c.AddBoxWithMarker(price, boxType, "")
}

// AddBoxWithMarker appends a box carrying a period marker. Returns false when a
// box at that price already exists.
func (c *Column) AddBoxWithMarker(price float64, boxType BoxType, marker string) bool {
	if c.HasBox(price) {
		return false
	}
	if len(c.boxes) == 0 {
		c.highest, c.lowest = price, price
	} else {
		if price > c.highest {
			c.highest = price
		}
		if price < c.lowest {
			c.lowest = price
		}
	}
	c.boxes = append(c.boxes, NewBox(price, boxType, marker))
	return true
}

// RemoveBox deletes the box at price. Returns false when there is no such box.
func (c *Column) RemoveBox(price float64) bool {
	idx := c.indexOf(price)
	if idx < 0 {
		return false
	}
	c.boxes = append(c.boxes[:idx], c.boxes[idx+1:]...)
	c.recomputeExtremes()
	return true
}

func (c *Column) recomputeExtremes() {
	if len(c.boxes) == 0 {
		c.highest, c.lowest = 0, 0
		return
	}
	c.highest, c.lowest = c.boxes[0].price, c.boxes[0].price
	for _, b := range c.boxes[1:] {
		if b.price > c.highest {
			c.highest = b.price
		}
		if b.price < c.lowest {
			c.lowest = b.price
		}
	}
}

func (c *Column) indexOf(price float64) int {
	for i := range c.boxes {
		if c.boxes[i].price == price {
			return i
		}
	}
	return -1
}

// HasBox reports whether a box exists at exactly price.
func (c *Column) HasBox(price float64) bool {
	return c.indexOf(price) >= 0
}

// Box returns the box at price.
func (c *Column) Box(price float64) (Box, bool) {
	idx := c.indexOf(price)
	if idx < 0 {
		return Box{}, false
	}
	return c.boxes[idx], true
}

// BoxAt returns the i-th box in insertion order. It panics when i is out of range.
func (c *Column) BoxAt(i int) Box {
	return c.boxes[i]
}

// BoxMarker returns the marker of the box at price, or "" when absent.
func (c *Column) BoxMarker(price float64) string {
	b, ok := c.Box(price)
	if !ok {
		return ""
	}
	return b.marker
}

// SetBoxMarker sets the marker of the box at price.
func (c *Column) SetBoxMarker(price float64, marker string) bool {
	idx := c.indexOf(price)
	if idx < 0 {
		return false
	}
	c.boxes[idx].SetMarker(marker)
	return true
}

// BoxCount returns the number of boxes.
func (c *Column) BoxCount() int { return len(c.boxes) }

// Boxes returns a copy of the boxes in insertion order.
func (c *Column) Boxes() []Box {
	out := make([]Box, len(c.boxes))
	copy(out, c.boxes)
	return out
}

// Highest returns the highest box price, or 0 for an empty column.
func (c *Column) Highest() float64 {
	if len(c.boxes) == 0 {
		return 0
	}
	return c.highest
}

// Lowest returns the lowest box price, or 0 for an empty column.
func (c *Column) Lowest() float64 {
	if len(c.boxes) == 0 {
		return 0
	}
	return c.lowest
}

// extremeIndex returns the position of the highest (high=true) or lowest box.
func (c *Column) extremeIndex(high bool) int {
	target := c.Lowest()
	if high {
		target = c.Highest()
	}
	return c.indexOf(target)
}

// Clear removes every box.
func (c *Column) Clear() {
	c.boxes = nil
	c.highest, c.lowest = 0, 0
}

func (c *Column) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Column Type: %s, Boxes: %d\n", c.columnType, len(c.boxes))
	for _, b := range c.boxes {
		sb.WriteString(b.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
