package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion_PrefersLinkerValue(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())

	Version = "dev"
	assert.NotEmpty(t, GetVersion())
}

func TestGetFullVersion(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v1.0.0", "0123456789abcdef", "2026-01-02T03:04:05Z"
	assert.Equal(t, "v1.0.0 (0123456, built 2026-01-02T03:04:05Z)", GetFullVersion())

	Date = "unknown"
	assert.Equal(t, "v1.0.0 (0123456)", GetFullVersion())
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "dataminer")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "dataminer version "))
	assert.Contains(t, out, "Package: github.com/dendrascience/dataminer")
	assert.Contains(t, out, "Go: "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH)
}

func TestGetInfo_LinkedValuesWin(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v2.0.0", "feedface", "2026-10-16"
	info := GetInfo()
	assert.Equal(t, "v2.0.0", info.Version)
	assert.Equal(t, "feedface", info.Commit)
	assert.Equal(t, "2026-10-16", info.Date)
	assert.Equal(t, Module, info.Package)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
