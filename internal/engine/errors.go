package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/patchwork/internal/unit"
)

// PatchError represents an error detected while ordering or applying
// extensions.
//
// Patch errors include:
//   - Storage not found: a referenced path is absent
//   - Not extended: the operation expects a saved chain and there is none
//   - Extension not found: the chain exists but lacks the named extension
//   - Invariant violation: a saved chain is present but empty
//   - Ambiguous mod mapping: an extension's package is not in the load order
//   - Cycle detected: parent bindings loop back on themselves
//
// Every check runs before any mutation, so a PatchError never leaves the
// binding table half-updated.
type PatchError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the extension or base path the operation was called with.
	Path unit.Path

	// Target is the resolved target path, when known.
	Target unit.Path

	// Details lists offending items (unmapped descriptors, cycle members).
	Details []string
}

// ErrorCode categorizes patch errors.
type ErrorCode string

const (
	// ErrCodeStorageNotFound indicates a referenced path is absent from storage.
	ErrCodeStorageNotFound ErrorCode = "STORAGE_NOT_FOUND"

	// ErrCodeNotExtended indicates the target has no saved chain.
	ErrCodeNotExtended ErrorCode = "NOT_EXTENDED"

	// ErrCodeExtensionNotFound indicates the chain does not contain the extension.
	ErrCodeExtensionNotFound ErrorCode = "EXTENSION_NOT_FOUND"

	// ErrCodeInvariantViolation indicates a saved chain is present but empty.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeAmbiguousMapping indicates extensions whose package id is not in the load order.
	ErrCodeAmbiguousMapping ErrorCode = "AMBIGUOUS_MOD_MAPPING"

	// ErrCodeCycleDetected indicates a cyclic parent chain.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeNoBase indicates an extension that declares no base to patch.
	ErrCodeNoBase ErrorCode = "NO_BASE"
)

// Error implements the error interface.
func (e *PatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Path != "" && e.Target != "" {
		fmt.Fprintf(&b, " (path=%s, target=%s)", e.Path, e.Target)
	} else if e.Path != "" {
		fmt.Fprintf(&b, " (path=%s)", e.Path)
	}
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Details, ", "))
	}
	return b.String()
}

// CodeOf returns the code of a PatchError anywhere in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *PatchError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsStorageNotFound returns true if the error is a storage-not-found error.
func IsStorageNotFound(err error) bool { return hasCode(err, ErrCodeStorageNotFound) }

// IsNotExtended returns true if the error is a not-extended error.
func IsNotExtended(err error) bool { return hasCode(err, ErrCodeNotExtended) }

// IsExtensionNotFound returns true if the error is an extension-not-found error.
func IsExtensionNotFound(err error) bool { return hasCode(err, ErrCodeExtensionNotFound) }

// IsInvariantViolation returns true if the error is an invariant violation.
func IsInvariantViolation(err error) bool { return hasCode(err, ErrCodeInvariantViolation) }

// IsAmbiguousMapping returns true if the error is an ambiguous mod mapping error.
func IsAmbiguousMapping(err error) bool { return hasCode(err, ErrCodeAmbiguousMapping) }

// IsCycleError returns true if the error is a cycle detection error.
func IsCycleError(err error) bool { return hasCode(err, ErrCodeCycleDetected) }

// IsNoBase returns true if the error is a no-base error.
func IsNoBase(err error) bool { return hasCode(err, ErrCodeNoBase) }

// NewStorageNotFoundError creates a PatchError for a missing storage path.
func NewStorageNotFoundError(p unit.Path) *PatchError {
	return &PatchError{
		Code:    ErrCodeStorageNotFound,
		Message: "path does not exist in storage",
		Path:    p,
	}
}

// NewNotExtendedError creates a PatchError for a target with no saved chain.
func NewNotExtendedError(p, target unit.Path) *PatchError {
	return &PatchError{
		Code:    ErrCodeNotExtended,
		Message: "target has not been extended",
		Path:    p,
		Target:  target,
	}
}

// NewExtensionNotFoundError creates a PatchError for an extension missing
// from its target's chain.
func NewExtensionNotFoundError(ext, target unit.Path) *PatchError {
	return &PatchError{
		Code:    ErrCodeExtensionNotFound,
		Message: "extension is not part of the target's chain",
		Path:    ext,
		Target:  target,
	}
}

// NewInvariantError creates a PatchError for a present but empty chain.
func NewInvariantError(p, target unit.Path) *PatchError {
	return &PatchError{
		Code:    ErrCodeInvariantViolation,
		Message: "saved chain is present but empty",
		Path:    p,
		Target:  target,
	}
}

// NewAmbiguousMappingError creates a PatchError listing descriptors whose
// package id could not be matched in the load order.
func NewAmbiguousMappingError(unmapped []unit.Descriptor) *PatchError {
	details := make([]string, len(unmapped))
	for i, d := range unmapped {
		details[i] = d.String()
	}
	return &PatchError{
		Code:    ErrCodeAmbiguousMapping,
		Message: fmt.Sprintf("%d extension(s) belong to packages missing from the load order", len(unmapped)),
		Details: details,
	}
}

// NewCycleError creates a PatchError for a cyclic parent chain. path lists the
// walk up to and including the repeated element.
func NewCycleError(path []unit.Path) *PatchError {
	details := make([]string, len(path))
	for i, p := range path {
		details[i] = string(p)
	}
	e := &PatchError{
		Code:    ErrCodeCycleDetected,
		Message: "parent bindings form a cycle",
		Details: []string{strings.Join(details, " -> ")},
	}
	if len(path) > 0 {
		e.Path = path[0]
	}
	return e
}

// NewNoBaseError creates a PatchError for an extension without a base.
func NewNoBaseError(ext unit.Path) *PatchError {
	return &PatchError{
		Code:    ErrCodeNoBase,
		Message: "extension declares no base to patch",
		Path:    ext,
	}
}
