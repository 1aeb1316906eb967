package predicate

import (
	"errors"
	"fmt"
)

// BuildError represents a validation failure detected while constructing
// a predicate or extending a query builder.
//
// Build errors include:
//   - Invalid field name: does not match the identifier pattern
//   - Invalid operator: not in the operator whitelist
//   - Invalid parameter name: does not match the placeholder pattern
//   - Empty list: a values/fields list that must be non-empty is empty
//   - Duplicate parameter: BETWEEN start/end names collide after trimming
//   - Nil predicate: a logical composition contains a nil child
//
// BuildError includes structured fields for diagnostics: the rejected
// value and the rule it violated.
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Message is a human-readable description.
	Message string

	// Value is the rejected input, rendered as a string.
	Value string

	// Rule names the constraint that was violated.
	Rule string
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	// ErrCodeInvalidField indicates a field name outside the identifier pattern.
	ErrCodeInvalidField BuildErrorCode = "INVALID_FIELD"

	// ErrCodeInvalidOperator indicates an operator outside the whitelist.
	ErrCodeInvalidOperator BuildErrorCode = "INVALID_OPERATOR"

	// ErrCodeInvalidParamName indicates an invalid parameter placeholder name.
	ErrCodeInvalidParamName BuildErrorCode = "INVALID_PARAM_NAME"

	// ErrCodeEmptyList indicates a required list was empty.
	ErrCodeEmptyList BuildErrorCode = "EMPTY_LIST"

	// ErrCodeDuplicateParam indicates two placeholder names collide.
	ErrCodeDuplicateParam BuildErrorCode = "DUPLICATE_PARAM"

	// ErrCodeNilPredicate indicates a nil child in a logical composition.
	ErrCodeNilPredicate BuildErrorCode = "NIL_PREDICATE"

	// ErrCodeInvalidArgument indicates an out-of-range builder argument,
	// such as a non-positive limit or page number.
	ErrCodeInvalidArgument BuildErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnbalancedGroup indicates more CloseGroup than OpenGroup calls.
	ErrCodeUnbalancedGroup BuildErrorCode = "UNBALANCED_GROUP"

	// ErrCodeOverflow indicates arithmetic overflow in a derived bound,
	// such as the page-to-offset computation.
	ErrCodeOverflow BuildErrorCode = "OVERFLOW"

	// ErrCodeLimitExceeded indicates a configured ceiling was exceeded.
	ErrCodeLimitExceeded BuildErrorCode = "LIMIT_EXCEEDED"

	// ErrCodeVariantDisabled indicates a predicate variant that the active
	// configuration has switched off.
	ErrCodeVariantDisabled BuildErrorCode = "VARIANT_DISABLED"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Value != "" && e.Rule != "" {
		return fmt.Sprintf("%s: %s (value=%q, rule=%s)", e.Code, e.Message, e.Value, e.Rule)
	}
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsBuildError returns true if the error is a BuildError.
// Uses errors.As to handle wrapped errors.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

// ErrorCode extracts the BuildErrorCode from an error.
// Returns the empty code if the error is not a BuildError.
func ErrorCode(err error) BuildErrorCode {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// NewBuildError creates a BuildError with the given code, rejected value,
// and violated rule.
func NewBuildError(code BuildErrorCode, message, value, rule string) *BuildError {
	return &BuildError{
		Code:    code,
		Message: message,
		Value:   value,
		Rule:    rule,
	}
}
