package meter

import "errors"

var (
	// ErrBadFrame indicates a malformed readout frame or telegram line.
	ErrBadFrame = errors.New("meter: malformed frame")

	// ErrBadChecksum indicates the block check character did not match
	// the received frame.
	ErrBadChecksum = errors.New("meter: bcc mismatch")

	// ErrNoRegister indicates a required register was absent from the
	// telegram.
	ErrNoRegister = errors.New("meter: register not present")

	// ErrBadUnit indicates a register value carried a unit the parser
	// does not understand.
	ErrBadUnit = errors.New("meter: unsupported unit")

	// ErrExhausted indicates a replay source ran out of captured rows.
	ErrExhausted = errors.New("meter: replay exhausted")
)
