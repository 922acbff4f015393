package dataset

import (
	"errors"
	"fmt"
)

// MissingInputError indicates the processed table does not exist.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input table not found at %s: run the preparation step first", e.Path)
}

// MissingColumnError indicates a required column is absent from the header.
type MissingColumnError struct {
	Column string
	Header []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found (have %v)", e.Column, e.Header)
}

// ErrEmptyTable is returned for a file without a header row.
var ErrEmptyTable = errors.New("input table is empty")
