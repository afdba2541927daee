package geocode

import (
	"context"
	"strings"

	"github.com/rushteam/nearbite/core"
)

// Place 是内置地名表中的一项。
type Place struct {
	Name string
	// Query 是交给在线服务的查询串
	Query string
	// Center 为 nil 时需要在线解析
	Center *core.Coordinate
}

func at(lat, lon float64) *core.Coordinate {
	return &core.Coordinate{Latitude: lat, Longitude: lon}
}

// MalangPlaces 是内置的马朗常用地名。
var MalangPlaces = []Place{
	{Name: "Kota Malang", Query: "Pusat Kota Malang", Center: at(-7.9666, 112.6326)},
	{Name: "Batu", Query: "Kota Batu, Malang", Center: at(-7.8671, 112.5251)},
	{Name: "Singosari", Query: "Singosari, Malang", Center: at(-7.8924, 112.6655)},
	{Name: "Kepanjen", Query: "Kepanjen, Malang", Center: at(-8.1305, 112.5722)},
	{Name: "Tumpang", Query: "Tumpang, Malang"},
	{Name: "Pujon", Query: "Pujon, Malang"},
	{Name: "Dau", Query: "Dau, Malang"},
	{Name: "Wagir", Query: "Wagir, Malang"},
	{Name: "Blimbing", Query: "Blimbing, Malang", Center: at(-7.9478, 112.6380)},
	{Name: "Klojen", Query: "Klojen, Malang"},
	{Name: "Lowokwaru", Query: "Lowokwaru, Malang", Center: at(-7.9477, 112.6150)},
	{Name: "Sukun", Query: "Sukun, Malang"},
	{Name: "Kedungkandang", Query: "Kedungkandang, Malang"},
	{Name: "UB Malang", Query: "Universitas Brawijaya, Malang"},
	{Name: "UM Malang", Query: "Universitas Negeri Malang"},
	{Name: "ITN Malang", Query: "ITN Malang"},
	{Name: "Alun-alun Malang", Query: "Alun-alun Malang"},
	{Name: "Malang Town Square", Query: "Matos, Malang"},
}

// Gazetteer 是离线地名表。只解析带坐标的地名；其余返回 not found，交给后续 Geocoder。
type Gazetteer struct {
	places []Place
	byName map[string]int
}

func NewGazetteer(places []Place) *Gazetteer {
	g := &Gazetteer{
		places: places,
		byName: make(map[string]int, len(places)),
	}
	for i, p := range places {
		g.byName[normalize(p.Name)] = i
	}
	return g
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (g *Gazetteer) Name() string { return "gazetteer" }

func (g *Gazetteer) Lookup(place string) (Place, bool) {
	i, ok := g.byName[normalize(place)]
	if !ok {
		return Place{}, false
	}
	return g.places[i], true
}

func (g *Gazetteer) Geocode(_ context.Context, place string) (Location, error) {
	p, ok := g.Lookup(place)
	if !ok || p.Center == nil {
		return Location{}, notFound(place, nil)
	}
	return Location{Coordinate: *p.Center, Address: p.Query, Source: g.Name()}, nil
}

// Query 把已知地名改写为在线查询串；未知地名原样返回。
func (g *Gazetteer) Query(place string) string {
	if p, ok := g.Lookup(place); ok && p.Query != "" {
		return p.Query
	}
	return place
}

// Places 返回地名表（按内置顺序）。
func (g *Gazetteer) Places() []Place {
	out := make([]Place, len(g.places))
	copy(out, g.places)
	return out
}
