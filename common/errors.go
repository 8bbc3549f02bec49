package common

import "errors"

var (
	ErrorInvalidValue = errors.New("invalid value")
	// ErrorIO: input missing, unreadable or empty, or output not creatable.
	ErrorIO = errors.New("io error")
	// ErrorFormat: input does not follow chr, start, end, signal, ...
	ErrorFormat = errors.New("format error")
	// ErrorRowBudget: the fill pass saw fewer rows than the sizing pass counted.
	ErrorRowBudget = errors.New("row budget mismatch")
)
