//go:build unix

// syscall.go wraps OS calls: EINTR is retried, other errors are escalated.

package diag

import (
	"context"
	"errors"

	"golang.org/x/sys/unix"
)

// retryEINTR calls fn until it fails with something other than EINTR.
func retryEINTR[T any](call func() (T, error)) (T, error) {
	for {
		result, err := call()
		if err == nil || !errors.Is(err, unix.EINTR) {
			return result, err
		}
	}
}

// Syscall runs call, retrying while it fails with EINTR. Any other error is
// escalated as a fatal OS error rendered as
// "error from OS: <callText>: <error text>"; in that case Syscall does not
// return.
//
//	fd := diag.Syscall(ctx, "dup(fd)", func() (int, error) { return unix.Dup(fd) })
func Syscall[T any](ctx context.Context, callText string, call func() (T, error), details ...Detail) T {
	result, err := retryEINTR(call)
	if err != nil {
		escalate(ctx, escalation{kind: KindOSError, condition: callText, osErr: err, loc: callerLocation(1), details: details}, 1)
	}
	return result
}

// SyscallOr is Syscall with a fallback. On failure OnRecoverable is called,
// fallback runs, and the call's own result and error are returned so the
// caller can still inspect them.
func SyscallOr[T any](ctx context.Context, callText string, call func() (T, error), fallback func(), details ...Detail) (T, error) {
	result, err := retryEINTR(call)
	if err != nil {
		escalate(ctx, escalation{kind: KindOSError, condition: callText, osErr: err, loc: callerLocation(1), details: details, fallback: fallback}, 1)
	}
	return result, err
}

// SyscallErr is Syscall for calls that only return an error, such as close.
func SyscallErr(ctx context.Context, callText string, call func() error, details ...Detail) {
	_, err := retryEINTR(errorOnly(call))
	if err != nil {
		escalate(ctx, escalation{kind: KindOSError, condition: callText, osErr: err, loc: callerLocation(1), details: details}, 1)
	}
}

// SyscallErrOr is SyscallOr for calls that only return an error.
func SyscallErrOr(ctx context.Context, callText string, call func() error, fallback func(), details ...Detail) error {
	_, err := retryEINTR(errorOnly(call))
	if err != nil {
		escalate(ctx, escalation{kind: KindOSError, condition: callText, osErr: err, loc: callerLocation(1), details: details, fallback: fallback}, 1)
	}
	return err
}

func errorOnly(call func() error) func() (struct{}, error) {
	return func() (struct{}, error) {
		return struct{}{}, call()
	}
}
