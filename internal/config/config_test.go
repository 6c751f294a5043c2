package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Empty(t, cfg.Collections)
	assert.Equal(t, "", cfg.Embeddings.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, 32, cfg.Embeddings.BatchSize)
	assert.Equal(t, runtime.NumCPU(), cfg.Performance.IndexWorkers)
	assert.Equal(t, "500ms", cfg.Performance.WatchDebounce)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestConfig_VersionDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, NewConfig().Version)
}

func TestConfig_DebounceWindow_ParsesDuration(t *testing.T) {
	cfg := NewConfig()
	cfg.Performance.WatchDebounce = "750ms"
	assert.Equal(t, 750*time.Millisecond, cfg.DebounceWindow())
}

func TestConfig_DebounceWindow_FallsBackOnBadValue(t *testing.T) {
	cfg := NewConfig()
	cfg.Performance.WatchDebounce = "not-a-duration"
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceWindow())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Embeddings.Model, cfg.Embeddings.Model)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	yamlContent := `
collections:
  - name: notes
    folder_path: /home/user/notes
embeddings:
  provider: static
  model: all-minilm
performance:
  watch_debounce: 250ms
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yaml"), []byte(yamlContent), 0644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	require.Len(t, cfg.Collections, 1)
	assert.Equal(t, "/home/user/notes", cfg.Collections[0].FolderPath)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, "all-minilm", cfg.Embeddings.Model)
	assert.Equal(t, "250ms", cfg.Performance.WatchDebounce)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yml"), []byte("embeddings:\n  model: yml-model\n"), 0644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "yml-model", cfg.Embeddings.Model)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yaml"), []byte("embeddings:\n  model: yaml-model\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yml"), []byte("embeddings:\n  model: yml-model\n"), 0644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "yaml-model", cfg.Embeddings.Model)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yaml"), []byte("::: not yaml"), 0644))

	_, err := Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yaml"), []byte("version: \"not-an-int\"\n"), 0644))

	_, err := Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yaml"), []byte("embeddings:\n  provider: magic\n"), 0644))

	_, err := Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_RejectsCollectionWithEmptyFolderPath(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yaml"), []byte("collections:\n  - name: bad\n"), 0644))

	_, err := Load(tmpDir)
	assert.Error(t, err)
}

func TestFindProjectRoot_GitDirectory_ReturnsGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	sub := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_ConfigFile_ReturnsConfigLocation(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".deepseeker.yaml"), []byte("version: 1\n"), 0644))
	sub := filepath.Join(tmpDir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_NoMarkers_ReturnsCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	root, err := FindProjectRoot(tmpDir)
	require.NoError(t, err)
	absDir, _ := filepath.Abs(tmpDir)
	assert.Equal(t, absDir, root)
}

func TestLoad_EnvVarOverridesProvider(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DEEPSEEKER_EMBEDDINGS_PROVIDER", "static")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_EnvVarOverridesModel(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DEEPSEEKER_EMBEDDINGS_MODEL", "all-minilm")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", cfg.Embeddings.Model)
}

func TestLoad_EnvVarOverridesLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DEEPSEEKER_LOG_LEVEL", "debug")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
}

func TestLoad_EnvVarOverridesTransport(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DEEPSEEKER_TRANSPORT", "sse")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "sse", cfg.Server.Transport)
}

func TestLoad_EnvVarOverridesIndexWorkers(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DEEPSEEKER_INDEX_WORKERS", "3")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Performance.IndexWorkers)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DEEPSEEKER_EMBEDDINGS_PROVIDER", "")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Embeddings.Provider)
}

func TestGetUserConfigPath_DefaultsToXDGLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "deepseeker", "config.yaml"), GetUserConfigPath())
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	assert.Equal(t, "/custom/xdg/deepseeker/config.yaml", GetUserConfigPath())
}

func TestGetUserConfigDir_ReturnsParentOfConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	assert.Equal(t, "/custom/xdg/deepseeker", GetUserConfigDir())
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.False(t, UserConfigExists())
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cfgDir := filepath.Join(xdg, "deepseeker")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("version: 1\n"), 0644))

	assert.True(t, UserConfigExists())
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cfgDir := filepath.Join(xdg, "deepseeker")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("embeddings:\n  model: user-model\n"), 0644))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "user-model", cfg.Embeddings.Model)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cfgDir := filepath.Join(xdg, "deepseeker")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("embeddings:\n  model: user-model\n"), 0644))

	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".deepseeker.yaml"), []byte("embeddings:\n  model: project-model\n"), 0644))

	cfg, err := Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, "project-model", cfg.Embeddings.Model)
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cfgDir := filepath.Join(xdg, "deepseeker")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("embeddings:\n  model: user-model\n"), 0644))

	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".deepseeker.yaml"), []byte("embeddings:\n  model: project-model\n"), 0644))

	t.Setenv("DEEPSEEKER_EMBEDDINGS_MODEL", "env-model")

	cfg, err := Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Embeddings.Model)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cfgDir := filepath.Join(xdg, "deepseeker")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("::: not yaml"), 0644))

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Model = "roundtrip-model"
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, "roundtrip-model", loaded.Embeddings.Model)
}

func TestValidate_RejectsBadTransport(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Transport = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.LogLevel = "shout"
	assert.Error(t, cfg.Validate())
}
