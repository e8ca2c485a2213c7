package mvtenc

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/paulmach/orb"
)

// DefaultExtent is the MVT integer coordinate range within a tile.
const DefaultExtent = 4096

// Feature is a decoded row ready for layer assembly: a geometry plus its
// property map (JSON-object insertion order preserved via OrderedProperties).
type Feature struct {
	Geometry   orb.Geometry
	Properties *OrderedProperties
}

// OrderedProperties preserves JSON-object key insertion order, since
// property iteration order determines dictionary insertion order (spec.md §4.6).
type OrderedProperties struct {
	keys   []string
	values map[string]interface{}
}

func NewOrderedProperties() *OrderedProperties {
	return &OrderedProperties{values: make(map[string]interface{})}
}

func (p *OrderedProperties) Set(key string, value interface{}) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *OrderedProperties) Delete(key string) {
	if _, exists := p.values[key]; !exists {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p *OrderedProperties) Keys() []string { return p.keys }
func (p *OrderedProperties) Get(key string) interface{} { return p.values[key] }

// ProtoFeature is a fully encoded feature ready for wire serialization.
type ProtoFeature struct {
	Type     GeomType
	Geometry []uint32
	Tags     []uint32
}

// Layer holds the per-request mutable dictionaries and the resulting encoded
// features, per spec.md §4.6. Name/version/extent are fixed by the handler's
// contract (single layer "default", version 1, extent 4096).
type Layer struct {
	Name    string
	Version uint32
	Extent  uint32

	keysMu sync.Mutex
	keys   []string

	valuesMu sync.Mutex
	values   []TypedValue

	featuresMu sync.Mutex
	Features   []ProtoFeature
}

// NewLayer constructs an empty layer ready for concurrent feature assembly.
func NewLayer(name string) *Layer {
	return &Layer{Name: name, Version: 1, Extent: DefaultExtent}
}

// AddFeatures encodes every input feature concurrently, fanning the work out
// across goroutines and guarding the shared key/value dictionaries with a
// short find-or-insert critical section, per spec.md §5.
func (l *Layer) AddFeatures(features []Feature, proj TileProjection) {
	var wg sync.WaitGroup
	for _, f := range features {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.addFeature(f, proj)
		}()
	}
	wg.Wait()
}

func (l *Layer) addFeature(f Feature, proj TileProjection) {
	if f.Geometry == nil {
		return
	}

	encoded, err := EncodeGeometry(f.Geometry, proj)
	if err != nil {
		log.Warnf("skipping feature: %v", err)
		return
	}
	if encoded == nil {
		// GeometryCollection: not an error, simply skipped.
		return
	}

	pf := ProtoFeature{Type: encoded.Type, Geometry: encoded.Geometry}

	if f.Properties != nil {
		for _, key := range f.Properties.Keys() {
			value, ok := TypedValueFromJSON(f.Properties.Get(key))
			if !ok {
				continue
			}
			keyIdx := l.keyIndex(key)
			valIdx := l.valueIndex(value)
			pf.Tags = append(pf.Tags, uint32(keyIdx), uint32(valIdx))
		}
	}

	l.featuresMu.Lock()
	l.Features = append(l.Features, pf)
	l.featuresMu.Unlock()
}

func (l *Layer) keyIndex(key string) int {
	l.keysMu.Lock()
	defer l.keysMu.Unlock()
	for i, k := range l.keys {
		if k == key {
			return i
		}
	}
	l.keys = append(l.keys, key)
	return len(l.keys) - 1
}

func (l *Layer) valueIndex(v TypedValue) int {
	l.valuesMu.Lock()
	defer l.valuesMu.Unlock()
	for i, existing := range l.values {
		if existing.Equal(v) {
			return i
		}
	}
	l.values = append(l.values, v)
	return len(l.values) - 1
}

// Keys returns the finalized key dictionary.
func (l *Layer) Keys() []string { return l.keys }

// Values returns the finalized value dictionary.
func (l *Layer) Values() []TypedValue { return l.values }
