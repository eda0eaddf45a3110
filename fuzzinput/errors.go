package fuzzinput

import (
	"errors"
	"strconv"
)

const resumableDefault = false

// ErrShortBytes is returned by Require when the cursor holds fewer unread
// bytes than requested.
var ErrShortBytes error = errShort{}

// Error is the interface satisfied by the errors that originate from
// this package.
type Error interface {
	error

	// Resumable reports whether decoding may continue after the error.
	// A short buffer is final: no later read can succeed either.
	Resumable() bool
}

// Resumable returns whether decoding can continue after e.
func Resumable(e error) bool {
	var fe Error
	if errors.As(e, &fe) {
		return fe.Resumable()
	}
	return resumableDefault
}

// WrapError adds the name of the value being decoded to err.
// ErrShortBytes is returned unchanged so callers can keep comparing with ==.
func WrapError(err error, ctx string) error {
	switch e := err.(type) {
	case errShort:
		return e
	case ShortBytesError:
		e.ctx = addCtx(e.ctx, ctx)
		return e
	default:
		return errWrapped{cause: err, ctx: ctx}
	}
}

func addCtx(ctx, add string) string {
	if ctx != "" {
		return add + "/" + ctx
	}
	return add
}

type errWrapped struct {
	cause error
	ctx   string
}

func (e errWrapped) Error() string {
	if e.ctx != "" {
		return e.cause.Error() + " at " + e.ctx
	}
	return e.cause.Error()
}

func (e errWrapped) Resumable() bool { return Resumable(e.cause) }

func (e errWrapped) Unwrap() error { return e.cause }

type errShort struct{}

func (e errShort) Error() string   { return "fuzzinput: too few bytes left in input" }
func (e errShort) Resumable() bool { return false }

// ShortBytesError is returned by Require with the number of bytes that
// were wanted and the number that were left.
type ShortBytesError struct {
	Wanted    int
	Remaining int
	ctx       string
}

// Error implements the error interface
func (s ShortBytesError) Error() string {
	out := "fuzzinput: wanted " + strconv.Itoa(s.Wanted) + " bytes; " + strconv.Itoa(s.Remaining) + " left"
	if s.ctx != "" {
		out += " at " + s.ctx
	}
	return out
}

// Resumable is always false for short buffers.
func (s ShortBytesError) Resumable() bool { return false }

// Is makes errors.Is(err, ErrShortBytes) hold for ShortBytesError.
func (s ShortBytesError) Is(target error) bool { return target == ErrShortBytes }
