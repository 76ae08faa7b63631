package ept

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptySchema is returned when a schema has no bytes per record.
	ErrEmptySchema = errors.New("schema describes a zero byte point record")
	// ErrBufferConsumed is returned when an OwnedBuffer is decoded a second time.
	ErrBufferConsumed = errors.New("buffer has already been consumed by a decode")
)

// UnsupportedFieldError is returned when a field's (kind, size) pair has no reader.
type UnsupportedFieldError struct {
	Field FieldDescriptor
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("invalid dimension specification for %s: %s", e.Field.Name, e.Field)
}

// NewUnsupportedFieldError is used when a field cannot be read.
func NewUnsupportedFieldError(fd FieldDescriptor) error {
	return &UnsupportedFieldError{Field: fd}
}

// MisalignedBufferError is returned when a buffer is not a whole number of records.
type MisalignedBufferError struct {
	Length int
	Stride int
}

func (e *MisalignedBufferError) Error() string {
	return fmt.Sprintf("buffer length %d is not a multiple of the point stride %d (%d trailing bytes)",
		e.Length, e.Stride, e.Length%e.Stride)
}

// IsUnsupportedField reports whether err is or wraps an UnsupportedFieldError.
func IsUnsupportedField(err error) bool {
	var target *UnsupportedFieldError
	return errors.As(err, &target)
}

// IsMisalignedBuffer reports whether err is or wraps a MisalignedBufferError.
func IsMisalignedBuffer(err error) bool {
	var target *MisalignedBufferError
	return errors.As(err, &target)
}

// UnknownChannelError is returned when a requested channel is not in the schema.
type UnknownChannelError struct {
	Name string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("requested channel %q is not a dimension of the schema", e.Name)
}
