package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/user/pakgo/pkg/pak"
)

// writeTestArchive builds a two-segment archive on disk and returns the
// path of the first segment.
func writeTestArchive(t *testing.T, dir string) string {
	t.Helper()

	first := pak.NewBuilder()
	first.Add("gfx/sprite.swf", []byte("sprite data"))
	first.SetProperty("link", "part1.d2p")
	first.SetProperty("vendor", "ankama")

	second := pak.NewBuilder()
	second.Add("maps/area1.bin", []byte("area one"))

	for name, builder := range map[string]*pak.Builder{
		"part0.d2p": first,
		"part1.d2p": second,
	} {
		var buf bytes.Buffer
		require.NoError(t, builder.WriteTo(&buf))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644))
	}
	return filepath.Join(dir, "part0.d2p")
}

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestListCommand(t *testing.T) {
	archive := writeTestArchive(t, t.TempDir())

	out := run(t, listCmd(), archive)
	require.Contains(t, out, "gfx/sprite.swf")
	require.Contains(t, out, "maps/area1.bin")
}

func TestPropsCommand(t *testing.T) {
	archive := writeTestArchive(t, t.TempDir())

	out := run(t, propsCmd(), archive)
	require.Contains(t, out, "vendor = ankama")
	require.Contains(t, out, "link = part1.d2p")
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	archive := writeTestArchive(t, dir)
	out := filepath.Join(dir, "single")
	require.NoError(t, os.MkdirAll(out, 0755))

	run(t, extractCmd(), archive, "maps/area1.bin", "--out", out)

	data, err := os.ReadFile(filepath.Join(out, "area1.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte("area one"), data)
}

func TestExtractAllCommand(t *testing.T) {
	dir := t.TempDir()
	archive := writeTestArchive(t, dir)
	dest := filepath.Join(dir, "tree")

	run(t, extractAllCmd(), archive, dest)

	data, err := os.ReadFile(filepath.Join(dest, "gfx", "sprite.swf"))
	require.NoError(t, err)
	require.Equal(t, []byte("sprite data"), data)
	data, err = os.ReadFile(filepath.Join(dest, "maps", "area1.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte("area one"), data)
}

func TestPackThenListRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "gfx"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "gfx", "a.png"), []byte("aaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.txt"), []byte("hello"), 0644))

	archive := filepath.Join(dir, "packed.d2p")
	run(t, packCmd(), src, archive, "--property", "vendor=me")

	reader, err := pak.Open(archive)
	require.NoError(t, err)
	defer reader.Close()

	require.Equal(t, 2, reader.Len())
	data, err := reader.ReadFile("gfx/a.png")
	require.NoError(t, err)
	require.Equal(t, []byte("aaa"), data)

	vendor, ok := reader.Property("vendor")
	require.True(t, ok)
	require.Equal(t, "me", vendor)
}

func TestExtractMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	archive := writeTestArchive(t, dir)

	cmd := extractCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{archive, "nope.bin"})
	require.ErrorIs(t, cmd.Execute(), pak.ErrNotFound)
}
