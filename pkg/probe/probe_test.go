package probe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/larrydiffey/xferplan/pkg/core"
)

func fakeLookPath(installed ...string) LookPathFunc {
	return func(file string) (string, error) {
		for _, name := range installed {
			if name == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestPathProbe_AllInstalled(t *testing.T) {
	p := NewPathProbe().WithLookPath(fakeLookPath("s5cmd", "rclone", "aws"))

	set := p.Available()

	assert.Equal(t, core.AllTools(), set.List())
}

func TestPathProbe_AWSVariantsTogether(t *testing.T) {
	p := NewPathProbe().WithLookPath(fakeLookPath("aws"))

	set := p.Available()

	assert.True(t, set.Has(core.ToolAWSCLI))
	assert.True(t, set.Has(core.ToolAWSCLIOptimized))
	assert.False(t, set.Has(core.ToolS5cmd))
	assert.False(t, set.Has(core.ToolRclone))
}

func TestPathProbe_NothingInstalled(t *testing.T) {
	p := NewPathProbe().WithLookPath(fakeLookPath())

	assert.Empty(t, p.Available().List())
}

func TestPathProbe_ExplicitBinary(t *testing.T) {
	p := NewPathProbe().
		WithLookPath(fakeLookPath("/opt/s5cmd/bin/s5cmd")).
		WithBinaryPath(core.ToolS5cmd, "/opt/s5cmd/bin/s5cmd")

	set := p.Available()

	assert.True(t, set.Has(core.ToolS5cmd))
	assert.False(t, set.Has(core.ToolAWSCLI))
}

func TestHostResources(t *testing.T) {
	h := NewHostResources()

	assert.GreaterOrEqual(t, h.CPUCount(), 1)
	// Memory may legitimately be unknown (0) on some platforms; it must not panic.
	_ = h.AvailableMemoryMB()
}
