package export

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/softterm/internal/renderer/core"
)

// Metadata describes one exported frame.
type Metadata struct {
	ID           string
	Frame        int
	Created      time.Time
	Font         string
	Grid         core.WindowSize
	CellWidth    int
	CellHeight   int
	Generation   uint64
	BlinkCounter int
	Animated     []core.Position
}

// NewMetadata creates metadata with a fresh frame ID.
func NewMetadata(frame int) Metadata {
	return Metadata{
		ID:      uuid.New().String(),
		Frame:   frame,
		Created: time.Now().UTC(),
	}
}

// JSON encodes the metadata.
func (m Metadata) JSON() ([]byte, error) {
	animated := make([][2]uint16, len(m.Animated))
	for i, p := range m.Animated {
		animated[i] = [2]uint16{p.Col, p.Row}
	}

	fields := []struct {
		path  string
		value any
	}{
		{"id", m.ID},
		{"frame", m.Frame},
		{"created", m.Created.Format(time.RFC3339)},
		{"font", m.Font},
		{"grid.cols", m.Grid.Cols},
		{"grid.rows", m.Grid.Rows},
		{"cell.width", m.CellWidth},
		{"cell.height", m.CellHeight},
		{"pixels.width", m.Grid.PixelWidth},
		{"pixels.height", m.Grid.PixelHeight},
		{"generation", m.Generation},
		{"blink_counter", m.BlinkCounter},
		{"animated", animated},
	}

	doc := []byte("{}")
	for _, f := range fields {
		var err error
		doc, err = sjson.SetBytes(doc, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	return doc, nil
}

// Save writes the metadata as JSON to path.
func (m Metadata) Save(path string) error {
	doc, err := m.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ParseMetadata decodes metadata written by JSON.
func ParseMetadata(data []byte) (Metadata, error) {
	if !gjson.ValidBytes(data) {
		return Metadata{}, fmt.Errorf("invalid metadata json")
	}
	doc := gjson.ParseBytes(data)

	m := Metadata{
		ID:           doc.Get("id").String(),
		Frame:        int(doc.Get("frame").Int()),
		Font:         doc.Get("font").String(),
		CellWidth:    int(doc.Get("cell.width").Int()),
		CellHeight:   int(doc.Get("cell.height").Int()),
		Generation:   doc.Get("generation").Uint(),
		BlinkCounter: int(doc.Get("blink_counter").Int()),
		Grid: core.WindowSize{
			Cols:        uint16(doc.Get("grid.cols").Uint()),
			Rows:        uint16(doc.Get("grid.rows").Uint()),
			PixelWidth:  int(doc.Get("pixels.width").Int()),
			PixelHeight: int(doc.Get("pixels.height").Int()),
		},
	}
	if created := doc.Get("created").String(); created != "" {
		t, err := time.Parse(time.RFC3339, created)
		if err != nil {
			return Metadata{}, fmt.Errorf("parse created: %w", err)
		}
		m.Created = t
	}
	for _, p := range doc.Get("animated").Array() {
		pair := p.Array()
		if len(pair) != 2 {
			return Metadata{}, fmt.Errorf("animated entry %s: want [col,row]", p.Raw)
		}
		m.Animated = append(m.Animated, core.Position{Col: uint16(pair[0].Uint()), Row: uint16(pair[1].Uint())})
	}
	return m, nil
}
