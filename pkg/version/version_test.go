package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserAgent(t *testing.T) {
	Set("")
	require.NotEmpty(t, Version())
	require.True(t, strings.HasPrefix(UserAgent(), "gasdash/"))
}
