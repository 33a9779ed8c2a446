//go:build unix

package diag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		condition string
		osErr     error
		details   []Detail
		want      string
	}{
		{"bug with condition", KindBug, "a < b", nil, nil, "bug in code: expected a < b"},
		{"bug with details", KindBug, "a < b", nil, []Detail{V("a", 3), V("b", 2)}, "bug in code: expected a < b; a = 3; b = 2"},
		{"bug without condition", KindBug, "", nil, []Detail{Lit("foo")}, "bug in code: foo"},
		{"bug without anything", KindBug, "", nil, nil, "bug in code"},
		{"requirement", KindRequirement, "n > 0", nil, nil, "requirement not met: expected n > 0"},
		{"explicit", KindExplicit, "", nil, []Detail{Lit("stop"), V("n", 1)}, "stop; n = 1"},
		{"os error", KindOSError, "close(fd)", unix.EBADF, nil, "error from OS: close(fd): " + unix.EBADF.Error()},
		{"os error with detail", KindOSError, "open(path)", unix.ENOENT, []Detail{V("path", "/x")}, "error from OS: open(path): " + unix.ENOENT.Error() + "; path = /x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.kind, tt.condition, tt.osErr, tt.details))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "bug", KindBug.String())
	assert.Equal(t, "requirement", KindRequirement.String())
	assert.Equal(t, "os_error", KindOSError.String())
	assert.Equal(t, "failure", KindExplicit.String())
	assert.Equal(t, "", KindExplicit.Phrase())
}

func TestFailure_Format(t *testing.T) {
	ctx, mock := withMock()
	ctx = WithContext(ctx, "compacting", V("table", "users"))

	AssertOr(ctx, false, "size >= 0", func() {})
	require.Len(t, mock.failures, 1)
	f := mock.failures[0]

	plain := fmt.Sprintf("%v", f)
	assert.Equal(t, f.Error(), plain)
	assert.Equal(t, f.Error(), fmt.Sprintf("%s", f))
	assert.Equal(t, fmt.Sprintf("%q", f.Error()), fmt.Sprintf("%q", f))

	lines := strings.Split(plain, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], ": context: compacting; table = users"))
	assert.True(t, strings.HasSuffix(lines[1], ": bug in code: expected size >= 0"))
	assert.Equal(t, lines[1], f.Line())

	verbose := fmt.Sprintf("%+v", f)
	assert.True(t, strings.HasPrefix(verbose, plain+"\nstack:\n"))
	assert.Contains(t, verbose, "TestFailure_Format()")
}

func TestFailure_IsAnError(t *testing.T) {
	ctx := WithCallback(context.Background(), NewDefaultCallback(WithWriter(&strings.Builder{})))

	err := Catch(func() {
		SyscallErr(ctx, "close(fd)", func() error { return unix.EBADF })
	})

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.ErrorIs(t, err, unix.EBADF)
	assert.Equal(t, "close(fd)", f.Condition)
}

func TestStack_String(t *testing.T) {
	s := Stack{
		{Function: "main.run", File: "/app/main.go", Line: 10},
		{Function: "main.main", File: "/app/main.go", Line: 4},
	}
	assert.Equal(t, "main.run()\n\t/app/main.go:10\nmain.main()\n\t/app/main.go:4\n", s.String())
}

func TestCaptureStack_StartsAtCaller(t *testing.T) {
	s := captureStack(0)
	require.NotEmpty(t, s)
	assert.True(t, strings.HasSuffix(s[0].Function, "TestCaptureStack_StartsAtCaller"))
	assert.LessOrEqual(t, len(s), maxStackDepth)
}

func TestHere(t *testing.T) {
	loc := Here()
	assert.Equal(t, fileLine(-1), loc.String())
}
