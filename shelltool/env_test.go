package shelltool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedEnv(t *testing.T) {
	t.Setenv("SHELLTOOL_ALLOWED", "yes")
	t.Setenv("SHELLTOOL_BLOCKED", "no")

	env := allowedEnv([]string{"SHELLTOOL_ALLOWED"})

	assert.Contains(t, env, "SHELLTOOL_ALLOWED=yes")
	var hasPath bool
	for _, kv := range env {
		assert.False(t, strings.HasPrefix(kv, "SHELLTOOL_BLOCKED="))
		if strings.HasPrefix(kv, "PATH=") {
			hasPath = true
		}
	}
	assert.True(t, hasPath, "PATH should always pass through")
}
