package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbrown91/cgat/pkg/version"
)

func TestString(t *testing.T) {
	version.InitBinaryVersion()

	s := version.String()
	assert.Contains(t, s, version.Version)
	assert.Contains(t, s, "commit: "+version.Commit)
	assert.Contains(t, s, "built: "+version.Date)
}
