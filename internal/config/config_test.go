package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGlobalConfig(t *testing.T) {
	cfg := DefaultGlobalConfig()
	assert.Equal(t, ColorAuto, cfg.ColorMode)
	assert.Empty(t, cfg.ToolSearchDirs)
}

func TestGlobalConfigValidate(t *testing.T) {
	cfg := GlobalConfig{ColorMode: "rainbow"}
	assert.Error(t, cfg.Validate())

	cfg = GlobalConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ColorAuto, cfg.ColorMode)
}

func TestDecoderForExtension(t *testing.T) {
	cases := map[string]bool{
		"global.json": true,
		"global.yml":  true,
		"global.yaml": true,
		"global.conf": true,
		"global.toml": false,
	}
	for name, ok := range cases {
		_, err := DecoderFor(name)
		if ok {
			assert.NoError(t, err, name)
		} else {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
		}
	}
}

func TestLoadGlobalConfigJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tool_search_dirs":["/opt/tools"],"color_mode":"never","verbose":true}`), 0o644))

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/tools"}, cfg.ToolSearchDirs)
	assert.Equal(t, ColorNever, cfg.ColorMode)
	assert.True(t, cfg.Verbose)
}

func TestLoadGlobalConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tool_search_dirs:\n  - /opt/tools\ncolor_mode: always\n"), 0o644))

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/tools"}, cfg.ToolSearchDirs)
	assert.Equal(t, ColorAlways, cfg.ColorMode)
}

func TestLoadGlobalConfigHCL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.conf")
	require.NoError(t, os.WriteFile(path, []byte("color_mode = \"never\"\nlog_file = \"/var/log/muxctl.log\"\n"), 0o644))

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ColorNever, cfg.ColorMode)
	assert.Equal(t, "/var/log/muxctl.log", cfg.LogFile)
}

func TestReadGenericDocumentRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basic_config:\n  fail_fast: true\n"), 0o644))

	generic, err := ReadGenericDocument(path)
	require.NoError(t, err)

	m, ok := generic.(map[string]interface{})
	require.True(t, ok)
	basic, ok := m["basic_config"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, basic["fail_fast"])
}
