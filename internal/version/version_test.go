package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringWithoutBuildMetadata(t *testing.T) {
	s := String()
	assert.True(t, strings.HasPrefix(s, "kpalette dev"))
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestStringWithBuildMetadata(t *testing.T) {
	oldCommit, oldDate := Commit, Date
	t.Cleanup(func() { Commit, Date = oldCommit, oldDate })

	Commit = "0123456789abcdef"
	Date = "2026-01-02T03:04:05Z"

	s := String()
	assert.Contains(t, s, "commit 01234567,")
	assert.Contains(t, s, "built 2026-01-02T03:04:05Z")

	Commit = "abc"
	assert.Contains(t, String(), "commit abc,")
}

func TestShort(t *testing.T) {
	assert.Equal(t, Version, Short())
}
