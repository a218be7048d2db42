// Package pnf builds Point-and-Figure charts from ordered price observations and
// tracks the 45-degree trend lines that P&F analysis draws over them.
package pnf

import (
	"strconv"
)

// BoxType is the rising (X) or falling (O) classification of a single box.
type BoxType string

const (
	BoxX BoxType = "X"
	BoxO BoxType = "O"
)

// Box is one printed price level inside a column.
type Box struct {
	price   float64
	boxType BoxType
	marker  string
}

// NewBox creates a box. The marker may be empty.
func NewBox(price float64, boxType BoxType, marker string) Box {
	return Box{price: price, boxType: boxType, marker: marker}
}

// Price returns the box boundary price.
func (b Box) Price() float64 { return b.price }

// Type returns the box's own X/O classification.
func (b Box) Type() BoxType { return b.boxType }

// Marker returns the period label attached to the box, if any.
func (b Box) Marker() string { return b.marker }

// SetMarker replaces the period label.
func (b *Box) SetMarker(marker string) { b.marker = marker }

// Symbol is what a grid cell shows for this box: the marker when set, else X or O.
func (b Box) Symbol() string {
	if b.marker != "" {
		return b.marker
	}
	return string(b.boxType)
}

func (b Box) String() string {
	return strconv.FormatFloat(b.price, 'f', -1, 64) + b.Symbol()
}
