package micropb

import (
	"github.com/go-faster/errors"
)

// Decode errors. All of them are fatal for the current decode call.
var (
	// ErrVarIntLimit is returned when a varint runs past 10 bytes.
	ErrVarIntLimit = errors.New("varint exceeds 10 bytes")
	// ErrUnexpectedEOF is returned when the reader ends inside a record.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	// ErrDeprecation is returned for the group wire types.
	ErrDeprecation = errors.New("deprecated group wire type")
	// ErrUnknownWireType is returned for wire types 6 and 7.
	ErrUnknownWireType = errors.New("unknown wire type")
	// ErrZeroField is returned for a tag with field number zero.
	ErrZeroField = errors.New("field number zero")
	// ErrWrongLen is returned when a length-delimited record does not consume
	// exactly its prefix.
	ErrWrongLen = errors.New("record length mismatch")
	// ErrUtf8 is returned when a string field holds invalid UTF-8.
	ErrUtf8 = errors.New("invalid utf-8 in string field")
	// ErrCapacity is returned when a fixed container cannot take more data.
	ErrCapacity = errors.New("container capacity exceeded")
	// ErrCustomField is returned when a custom field handler refuses a field
	// number it claimed.
	ErrCustomField = errors.New("custom field handler rejected field")
	// ErrReader marks failures coming from the underlying Reader.
	ErrReader = errors.New("reader failure")
)

// Encode and registry errors.
var (
	// ErrBufferFull is returned by FixedWriter when the output does not fit.
	ErrBufferFull = errors.New("output buffer full")
	// ErrIdNotFound is returned for extension IDs that were never allocated or
	// have been deallocated.
	ErrIdNotFound = errors.New("extension id not found")
)

// ReaderError carries an error produced by a Reader. It matches both
// ErrReader and the wrapped error with errors.Is.
type ReaderError struct {
	Err error
}

func (e *ReaderError) Error() string {
	return "micropb: reader: " + e.Err.Error()
}

func (e *ReaderError) Unwrap() []error {
	return []error{ErrReader, e.Err}
}

func readerErr(err error) error {
	if err == nil {
		return nil
	}
	var re *ReaderError
	if errors.As(err, &re) {
		return err
	}
	return &ReaderError{Err: err}
}

// IsCapacity reports whether err is a capacity error.
func IsCapacity(err error) bool {
	return errors.Is(err, ErrCapacity)
}
