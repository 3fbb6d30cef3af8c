package domain

import "errors"

// Input errors. Every one of them is terminal for a pipeline run: callers
// surface the kind and message to the user and wait for corrected input.
var (
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrUnreadableInput     = errors.New("unreadable input")
	ErrInsufficientColumns = errors.New("data should have at least a NIS code and a data column")
	ErrMissingJoinKey      = errors.New("NIS code column is missing")
	ErrAmbiguousJoinKey    = errors.New("multiple columns have NIS code name")
	ErrInvalidJoinKeyType  = errors.New("data type for NIS code is incorrect, should be integer")
	ErrUnknownColumn       = errors.New("unknown column")
	ErrInvalidOption       = errors.New("invalid option")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrUnreadableInput, "unreadable_input"},
	{ErrInsufficientColumns, "insufficient_columns"},
	{ErrMissingJoinKey, "missing_join_key"},
	{ErrAmbiguousJoinKey, "ambiguous_join_key"},
	{ErrInvalidJoinKeyType, "invalid_join_key_type"},
	{ErrUnknownColumn, "unknown_column"},
	{ErrInvalidOption, "invalid_option"},
}

// ErrorKind maps an error to its taxonomy name, e.g. "missing_join_key".
// Errors outside the taxonomy are reported as "internal"; nil as "".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// IsInputError reports whether err belongs to the input-error taxonomy.
func IsInputError(err error) bool {
	k := ErrorKind(err)
	return k != "" && k != "internal"
}
