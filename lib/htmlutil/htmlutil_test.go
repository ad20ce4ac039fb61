package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	node, err := html.Parse(strings.NewReader("<td>\n  Algorithms <span>and</span>\n  Complexity\n</td>"))
	require.NoError(t, err)
	require.Equal(t, "Algorithms and Complexity", CleanText(GetText(node)))
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "Giriş 40%", CleanText("\n  Giriş \t\n 40%  "))
}
