package mvtenc

import "fmt"

// TileError is the tagged error variant returned by tile construction.
// EncodingError and DatabaseError are both surfaced to callers as a failed
// tile fetch; NotFound is reserved and currently unused — an empty result set
// produces a well-formed empty tile, not a NotFound error.
type TileError struct {
	kind    tileErrorKind
	message string
}

type tileErrorKind int

const (
	kindEncoding tileErrorKind = iota
	kindDatabase
	kindNotFound
)

func EncodingError(format string, args ...interface{}) *TileError {
	return &TileError{kind: kindEncoding, message: fmt.Sprintf(format, args...)}
}

func DatabaseError(format string, args ...interface{}) *TileError {
	return &TileError{kind: kindDatabase, message: fmt.Sprintf(format, args...)}
}

func NotFound() *TileError {
	return &TileError{kind: kindNotFound, message: "no results"}
}

func (e *TileError) Error() string {
	switch e.kind {
	case kindEncoding:
		return "encoding error: " + e.message
	case kindDatabase:
		return "database error: " + e.message
	default:
		return "not found"
	}
}

func (e *TileError) IsEncoding() bool { return e.kind == kindEncoding }
func (e *TileError) IsDatabase() bool { return e.kind == kindDatabase }
func (e *TileError) IsNotFound() bool { return e.kind == kindNotFound }
