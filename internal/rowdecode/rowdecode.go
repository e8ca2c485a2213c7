// Package rowdecode turns a single tile-query result row into a mvtenc.Feature:
// WKB bytes decoded to a geometry, JSON properties decoded to an ordered map,
// and the row's H3 cluster count injected under "h3ClusterCount".
package rowdecode

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/tobilg/mvt-tileserver/internal/mvtenc"
)

// Row is the decoded shape of one tile-query result row, matching the three
// columns emitted by internal/tilequery: properties (json), h3ClusterCount
// (int8), and __internal_geometry_bin__ (bytea, WKB).
type Row struct {
	GeometryWKB    []byte
	H3ClusterCount int64
	PropertiesJSON []byte
}

// Decode converts a Row into a mvtenc.Feature. Returns ok == false when the
// row should be dropped silently: a WKB parse failure is returned as an
// error (surfaced by the caller as an EncodingError); a properties value that
// is not a JSON object causes a silent drop (ok == false, err == nil), per
// spec.md §4.3 and §4.8.
func Decode(row Row, geoCol string) (feature mvtenc.Feature, ok bool, err error) {
	geom, decodeErr := wkb.Unmarshal(row.GeometryWKB)
	if decodeErr != nil {
		return mvtenc.Feature{}, false, decodeErr
	}

	props, isObject := decodeProperties(row.PropertiesJSON)
	if !isObject {
		return mvtenc.Feature{}, false, nil
	}

	props.Delete(geoCol)
	props.Set("h3ClusterCount", json.Number(strconv.FormatInt(row.H3ClusterCount, 10)))

	return mvtenc.Feature{Geometry: orb.Geometry(geom), Properties: props}, true, nil
}

// decodeProperties parses the row_to_json column. If the top-level value is
// not a JSON object the row is not usable (ok == false).
func decodeProperties(raw []byte) (*mvtenc.OrderedProperties, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	delim, isDelim := tok.(json.Delim)
	if !isDelim || delim != '{' {
		return nil, false
	}

	props := mvtenc.NewOrderedProperties()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, isString := keyTok.(string)
		if !isString {
			return nil, false
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		props.Set(key, value)
	}

	return props, true
}
