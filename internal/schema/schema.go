// Package schema is the validation boundary for upstream JSON. Response types
// describe the shape they expect and implement Validator; nothing past Decode
// sees an unchecked document.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/mo"
)

// Validator is implemented by every response type decoded through this package.
type Validator interface {
	Validate() error
}

// Error reports a document that is not valid JSON or does not match its schema.
type Error struct {
	Schema string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Schema, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Decode parses data into T and validates it.
func Decode[T Validator](name string, data []byte) mo.Result[T] {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return mo.Err[T](&Error{Schema: name, Err: fmt.Errorf("decoding JSON: %w", err)})
	}
	if err := v.Validate(); err != nil {
		return mo.Err[T](&Error{Schema: name, Err: err})
	}
	return mo.Ok(v)
}

// Violations collects every field that failed validation so one error names
// all of them.
type Violations []string

// Require records a violation at path unless ok holds.
func (v *Violations) Require(ok bool, path, problem string) {
	if !ok {
		*v = append(*v, path+": "+problem)
	}
}

// Err returns nil when nothing was recorded.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return errors.New(strings.Join(v, "; "))
}

// Index formats a path element for a slice entry, e.g. Index("titles", 2) is "titles[2]".
func Index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
