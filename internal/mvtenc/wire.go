package mvtenc

import (
	"math"

	"github.com/gogo/protobuf/proto"
)

// Wire field numbers and types from the Mapbox Vector Tile specification
// §4.1-4.4 (vector_tile.proto). Only the low-level varint/tag primitives of
// gogo/protobuf are used here — the message structure itself is written by
// hand (not the library's generated-message machinery). Each nested message is
// encoded into its own growing buffer and then copied into its parent as a
// length-delimited field; buffers are not pre-sized from a computed size.
const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5

	tileFieldLayers = 3

	layerFieldVersion  = 15
	layerFieldName     = 1
	layerFieldFeatures = 2
	layerFieldKeys     = 3
	layerFieldValues   = 4
	layerFieldExtent   = 5

	featureFieldTags     = 2
	featureFieldType     = 3
	featureFieldGeometry = 4

	valueFieldString = 1
	valueFieldDouble = 3
	valueFieldInt    = 4
	valueFieldUint   = 5
	valueFieldBool   = 7
)

func writeTag(buf *proto.Buffer, field, wireType int) {
	_ = buf.EncodeVarint(uint64(field<<3 | wireType))
}

func writeVarintField(buf *proto.Buffer, field int, v uint64) {
	writeTag(buf, field, wireVarint)
	_ = buf.EncodeVarint(v)
}

func writeStringField(buf *proto.Buffer, field int, s string) {
	writeTag(buf, field, wireBytes)
	_ = buf.EncodeStringBytes(s)
}

func writeBytesField(buf *proto.Buffer, field int, b []byte) {
	writeTag(buf, field, wireBytes)
	_ = buf.EncodeRawBytes(b)
}

func writeFixed64Field(buf *proto.Buffer, field int, bits uint64) {
	writeTag(buf, field, wireFixed64)
	_ = buf.EncodeFixed64(bits)
}

// EncodeValue serializes a single MVT Value message.
func EncodeValue(v TypedValue) []byte {
	buf := proto.NewBuffer(nil)
	switch v.Kind {
	case ValueString:
		writeStringField(buf, valueFieldString, v.String)
	case ValueDouble:
		writeFixed64Field(buf, valueFieldDouble, math.Float64bits(v.Double))
	case ValueInt:
		writeVarintField(buf, valueFieldInt, uint64(v.Int))
	case ValueUint:
		writeVarintField(buf, valueFieldUint, v.Uint)
	case ValueBool:
		b := uint64(0)
		if v.Bool {
			b = 1
		}
		writeVarintField(buf, valueFieldBool, b)
	case ValueNull:
		// Null properties are never inserted into the dictionary (spec.md §4.6);
		// an empty Value message is written only if one slips through.
	}
	return buf.Bytes()
}

// EncodeLayer serializes a complete MVT Layer message: name, version,
// extent, features, and the finalized key/value dictionaries.
func EncodeLayer(l *Layer) []byte {
	buf := proto.NewBuffer(nil)
	writeStringField(buf, layerFieldName, l.Name)

	for _, f := range l.Features {
		writeBytesField(buf, layerFieldFeatures, encodeFeatureBody(f))
	}
	for _, k := range l.Keys() {
		writeStringField(buf, layerFieldKeys, k)
	}
	for _, v := range l.Values() {
		writeBytesField(buf, layerFieldValues, EncodeValue(v))
	}
	writeVarintField(buf, layerFieldExtent, uint64(l.Extent))
	writeVarintField(buf, layerFieldVersion, uint64(l.Version))

	return buf.Bytes()
}

func encodeFeatureBody(f ProtoFeature) []byte {
	buf := proto.NewBuffer(nil)
	if len(f.Tags) > 0 {
		packed := proto.NewBuffer(nil)
		for _, v := range f.Tags {
			_ = packed.EncodeVarint(uint64(v))
		}
		writeBytesField(buf, featureFieldTags, packed.Bytes())
	}
	writeVarintField(buf, featureFieldType, uint64(f.Type))
	if len(f.Geometry) > 0 {
		packed := proto.NewBuffer(nil)
		for _, v := range f.Geometry {
			_ = packed.EncodeVarint(uint64(v))
		}
		writeBytesField(buf, featureFieldGeometry, packed.Bytes())
	}
	return buf.Bytes()
}

// EncodeTile serializes the full MVT Tile message containing one or more layers.
func EncodeTile(layers []*Layer) []byte {
	buf := proto.NewBuffer(nil)
	for _, l := range layers {
		writeBytesField(buf, tileFieldLayers, EncodeLayer(l))
	}
	return buf.Bytes()
}
