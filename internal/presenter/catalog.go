// Package presenter derives display-ready views from a labor.Dataset: latest
// indicators, windowed and unit-grouped time series, pivot tables, charts and
// terminal reports. It holds no persisted state.
package presenter

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

// Unit groups series that share a comparable measurement scale.
type Unit string

const (
	UnitCount   Unit = "count"
	UnitPercent Unit = "percent"
	UnitOther   Unit = "other"
)

// Label returns the axis label of the unit.
func (u Unit) Label() string {
	switch u {
	case UnitCount:
		return "Thousands"
	case UnitPercent:
		return "Percent"
	default:
		return "Value"
	}
}

// SeriesMeta is the display metadata of one series.
type SeriesMeta struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	Unit        Unit   `yaml:"unit" json:"unit"`
	Color       string `yaml:"color" json:"color"`
}

// DescriptionHTML renders the markdown description.
func (m SeriesMeta) DescriptionHTML() template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(m.Description), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(m.Description))
	}
	return template.HTML(buf.String())
}

//go:embed series.yaml
var embeddedCatalog []byte

// Catalog is the immutable series metadata table.
type Catalog struct {
	series []SeriesMeta
	byID   map[string]int
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded series catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file; an empty path returns DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read series catalog: %w", err)
	}
	c, err := ParseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("invalid series catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(b []byte) (*Catalog, error) {
	var doc struct {
		Series []SeriesMeta `yaml:"series"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	c := &Catalog{byID: make(map[string]int, len(doc.Series))}
	for i, m := range doc.Series {
		m.ID = strings.TrimSpace(m.ID)
		m.Description = strings.TrimSpace(m.Description)
		switch {
		case m.ID == "":
			return nil, fmt.Errorf("series #%d has no id", i+1)
		case m.Label == "":
			return nil, fmt.Errorf("series %s has no label", m.ID)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("series %s is declared twice", m.ID)
		}
		switch m.Unit {
		case UnitCount, UnitPercent:
		case "":
			m.Unit = UnitOther
		default:
			return nil, fmt.Errorf("series %s has unknown unit %q", m.ID, m.Unit)
		}
		if m.Color == "" {
			m.Color = "#7f7f7f"
		}
		c.byID[m.ID] = len(c.series)
		c.series = append(c.series, m)
	}
	return c, nil
}

// Series returns a copy of all entries in catalog order.
func (c *Catalog) Series() []SeriesMeta {
	return append([]SeriesMeta(nil), c.series...)
}

// IDs returns the series ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.series))
	for i, m := range c.series {
		ids[i] = m.ID
	}
	return ids
}

// Lookup returns the metadata of id.
func (c *Catalog) Lookup(id string) (SeriesMeta, bool) {
	i, ok := c.byID[id]
	if !ok {
		return SeriesMeta{}, false
	}
	return c.series[i], true
}

// Meta returns the metadata of id, or a placeholder entry for unknown series.
func (c *Catalog) Meta(id string) SeriesMeta {
	if m, ok := c.Lookup(id); ok {
		return m
	}
	return SeriesMeta{ID: id, Label: id, Unit: UnitOther, Color: "#7f7f7f"}
}

// Label returns the display label of id, falling back to id itself.
func (c *Catalog) Label(id string) string { return c.Meta(id).Label }

// UnitOf returns the unit group of id.
func (c *Catalog) UnitOf(id string) Unit { return c.Meta(id).Unit }

// order returns the catalog position of id; unknown ids sort last.
func (c *Catalog) order(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return len(c.series)
}
