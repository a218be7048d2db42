package pnf

// BoxView is the serialisable form of a Box.
type BoxView struct {
	Price  float64 `json:"price" yaml:"price"`
	Type   BoxType `json:"type" yaml:"type"`
	Marker string  `json:"marker,omitempty" yaml:"marker,omitempty"`
}

// ColumnView is the serialisable form of a Column.
type ColumnView struct {
	Index   int        `json:"index" yaml:"index"`
	Type    ColumnType `json:"type" yaml:"type"`
	Highest float64    `json:"highest" yaml:"highest"`
	Lowest  float64    `json:"lowest" yaml:"lowest"`
	Boxes   []BoxView  `json:"boxes" yaml:"boxes"`
}

// TrendLineView is the serialisable form of a TrendLine.
type TrendLineView struct {
	Type       TrendLineType  `json:"type" yaml:"type"`
	Start      TrendLinePoint `json:"start" yaml:"start"`
	End        TrendLinePoint `json:"end" yaml:"end"`
	BoxSize    float64        `json:"box_size" yaml:"box_size"`
	Active     bool           `json:"active" yaml:"active"`
	TouchCount int            `json:"touch_count" yaml:"touch_count"`
}

// Snapshot is a point-in-time copy of a chart suitable for JSON or YAML output.
type Snapshot struct {
	Config     Config          `json:"config" yaml:"config"`
	BoxSize    float64         `json:"box_size" yaml:"box_size"`
	State      string          `json:"state" yaml:"state"`
	Bias       Bias            `json:"bias" yaml:"bias"`
	Columns    []ColumnView    `json:"columns" yaml:"columns"`
	TrendLines []TrendLineView `json:"trend_lines" yaml:"trend_lines"`
}

// NewTrendLineView converts a line for output.
func NewTrendLineView(l TrendLine) TrendLineView {
	return TrendLineView{
		Type:       l.lineType,
		Start:      l.start,
		End:        l.end,
		BoxSize:    l.boxSize,
		Active:     l.active,
		TouchCount: l.touchCount,
	}
}

// Snapshot copies the chart's current state.
func (c *Chart) Snapshot() Snapshot {
	s := Snapshot{
		Config:  c.cfg,
		BoxSize: c.boxSize,
		State:   c.state.String(),
		Bias:    c.Bias(),
		Columns: make([]ColumnView, len(c.columns)),
	}
	for i, col := range c.columns {
		view := ColumnView{
			Index:   i,
			Type:    col.Type(),
			Highest: col.Highest(),
			Lowest:  col.Lowest(),
			Boxes:   make([]BoxView, len(col.boxes)),
		}
		for j, b := range col.boxes {
			view.Boxes[j] = BoxView{Price: b.price, Type: b.boxType, Marker: b.marker}
		}
		s.Columns[i] = view
	}
	for _, l := range c.trendLines.lines {
		s.TrendLines = append(s.TrendLines, NewTrendLineView(l))
	}
	return s
}
