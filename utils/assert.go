package utils

import (
	"fmt"
	"runtime"
)

// AssertionError is the panic value raised by Fail and Assert.
type AssertionError struct {
	File string
	Line int
	Err  error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed, file %s, line: %d: %v", e.File, e.Line, e.Err)
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// Fail panics with an *AssertionError wrapping err. With skip 0 the reported
// location is the function that called Fail; each increment moves one frame up.
func Fail(skip int, err error) {
	e := &AssertionError{Err: err}
	// 跳过Callers和Fail
	ptrs := make([]uintptr, 1)
	if n := runtime.Callers(skip+2, ptrs); n > 0 {
		frame, _ := runtime.CallersFrames(ptrs[:n]).Next()
		e.File, e.Line = frame.File, frame.Line
	}
	panic(e)
}

// Assert calls Fail when b is false.
func Assert(b bool, skip int, err error) {
	if !b {
		Fail(skip+1, err)
	}
}
