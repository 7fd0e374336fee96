package types

import "errors"

// Error categories shared by every package. Specific errors wrap one of them
// so callers can decide how to react with errors.Is.
var (
	// ErrFormat reports a malformed credential, security code, vote code or
	// encoded value. It can be surfaced to the user for re-entry.
	ErrFormat = errors.New("format error")
	// ErrRange reports a permutation rank or index outside its domain.
	ErrRange = errors.New("range error")
	// ErrArithmetic reports a big integer contract violation such as an
	// underflow or a division by zero.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrTransport reports an I/O failure against the data service.
	ErrTransport = errors.New("transport error")
	// ErrConsistency reports a data service response that does not match
	// the expected shape.
	ErrConsistency = errors.New("consistency error")
)
