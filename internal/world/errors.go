package world

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for world loading and validation.
const (
	ErrCodeGeneric     = "W001" // Generic/unknown error
	ErrCodeNoFiles     = "W003" // No CUE files found
	ErrCodeLoadFailed  = "W004" // CUE load failed
	ErrCodeNotFound    = "W005" // Directory not found
	ErrCodeBuildFailed = "W006" // CUE build failed

	ErrCodeInvalidField   = "W101" // Field has the wrong type
	ErrCodeDuplicatePath  = "W102" // Path declared twice
	ErrCodeUnknownBase    = "W103" // extends names an undeclared path
	ErrCodeBaseCycle      = "W104" // declared bases loop
	ErrCodeOutsideModRoot = "W105" // extension not under mods_root/<package>/
	ErrCodeUnknownPackage = "W106" // load order names an undeclared package
	ErrCodeUnordered      = "W107" // package missing from the load order
	ErrCodeEmptyPath      = "W108" // empty storage path
)

// LoadError is a world loading or validation error with its CUE position.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// fromCUE converts a CUE error into a LoadError carrying the first error's
// position.
func fromCUE(code, field string, err error) *LoadError {
	le := &LoadError{Code: code, Field: field, Message: err.Error()}
	if errs := errors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		if positions := errors.Positions(errs[0]); len(positions) > 0 {
			le.Pos = positions[0]
		}
	}
	return le
}
