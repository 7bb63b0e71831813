package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/dsl"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	root := dsl.New("").Events("button", "halt")
	root.Start("Crossing")
	c := root.State("Crossing").Entry("log", "open")
	c.On("halt").Go("final")
	c.State("Flowing").Exit("stop_timer", "one_second").
		On("button").When("is", "armed").Go("Flowing")
	root.State("final")

	tree, errs := runtime.Build(root.Definition(), registry.New())
	require.Empty(t, errs)

	md := Describe(tree)
	assert.Contains(t, md, "# root\n")
	assert.Contains(t, md, "**Events:** `button`, `halt`")
	assert.Contains(t, md, "## root\n\n- starts in `root.Crossing`")
	assert.Contains(t, md, "### root.Crossing\n\n- starts in `root.Crossing.Flowing`\n- entry: `log(open)`")
	assert.Contains(t, md, "| `halt` | - | - | `root.final` |")
	assert.Contains(t, md, "| `button` | `is(armed)` | - | `root.Crossing.Flowing` |")
	assert.Contains(t, md, "- exit: `stop_timer(one_second)`")
	assert.Contains(t, md, "### root.final\n\n- terminal")
	assert.NotContains(t, md, "root.start")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), `\___\__,_|`)
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(80)
	require.NoError(t, err)
	out, err := render("# root\n\nhello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}
