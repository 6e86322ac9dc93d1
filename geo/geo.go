// Package geo loads canton boundaries from a GeoJSON feature collection.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// DefaultNameProperty is the feature property joined against canton names.
const DefaultNameProperty = "name"

var ErrNoFeatures = errors.New("no named polygon features")

// Feature is one canton boundary.
type Feature struct {
	Name     string
	Geometry geom.T
}

// Polygons returns the feature's polygons, each as a list of rings with the
// outer ring first.
func (f Feature) Polygons() [][][]geom.Coord {
	switch g := f.Geometry.(type) {
	case *geom.Polygon:
		return [][][]geom.Coord{rings(g)}
	case *geom.MultiPolygon:
		out := make([][][]geom.Coord, 0, g.NumPolygons())
		for i := 0; i < g.NumPolygons(); i++ {
			out = append(out, rings(g.Polygon(i)))
		}
		return out
	}
	return nil
}

func rings(p *geom.Polygon) [][]geom.Coord {
	out := make([][]geom.Coord, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		out = append(out, p.LinearRing(i).Coords())
	}
	return out
}

// Collection is an immutable set of canton boundaries.
type Collection struct {
	raw      []byte
	features []Feature
	byName   map[string]int
}

// Load reads a GeoJSON feature collection from path.
func Load(path, nameProperty string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geojson: %w", err)
	}
	defer f.Close()
	c, err := Parse(f, nameProperty)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a feature collection. Features without a string name
// property, or whose geometry is not a polygon or multipolygon, are skipped.
// If two features share a name the first one wins.
func Parse(r io.Reader, nameProperty string) (*Collection, error) {
	if nameProperty == "" {
		nameProperty = DefaultNameProperty
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	c := &Collection{raw: raw, byName: make(map[string]int)}
	for _, feat := range fc.Features {
		if feat == nil {
			continue
		}
		name, ok := feat.Properties[nameProperty].(string)
		if !ok || name == "" {
			continue
		}
		switch feat.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			continue
		}
		if _, dup := c.byName[name]; dup {
			continue
		}
		c.byName[name] = len(c.features)
		c.features = append(c.features, Feature{Name: name, Geometry: feat.Geometry})
	}
	if len(c.features) == 0 {
		return nil, ErrNoFeatures
	}
	return c, nil
}

// Lookup returns the feature whose name matches exactly.
func (c *Collection) Lookup(name string) (Feature, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Feature{}, false
	}
	return c.features[i], true
}

// Features returns every feature in document order.
func (c *Collection) Features() []Feature { return append([]Feature(nil), c.features...) }

// Names returns the feature names, sorted.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.features))
	for _, f := range c.features {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Raw returns the document exactly as it was read, for clients that draw the
// map themselves.
func (c *Collection) Raw() []byte { return c.raw }

// Bounds returns the bounding box of all features as min/max X and Y.
func (c *Collection) Bounds() (minX, minY, maxX, maxY float64) {
	b := geom.NewBounds(geom.XY)
	for _, f := range c.features {
		b.Extend(f.Geometry)
	}
	return b.Min(0), b.Min(1), b.Max(0), b.Max(1)
}
