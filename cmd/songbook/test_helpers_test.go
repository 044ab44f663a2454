package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"songbook/internal/catalog"
)

type cliTestEnv struct {
	baseDir    string
	datasetDir string
	stateDir   string
	configPath string
}

func (e *cliTestEnv) catalogPath() string {
	return filepath.Join(e.datasetDir, "metadata.json")
}

func setupCLITestEnv(t *testing.T, extraConfig string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	t.Setenv("GENIUS_API_TOKEN", "")
	t.Setenv("SONGBOOK_DATASET_DIR", "")
	t.Chdir(home)

	env := &cliTestEnv{
		baseDir:    base,
		datasetDir: filepath.Join(base, "dataset"),
		stateDir:   filepath.Join(base, "state"),
		configPath: filepath.Join(base, "songbook.toml"),
	}
	content := fmt.Sprintf("[paths]\ndataset_dir = %q\nstate_dir = %q\n\n[logging]\nlevel = \"error\"\n\n%s\n",
		env.datasetDir, env.stateDir, extraConfig)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.MkdirAll(env.datasetDir, 0o755); err != nil {
		t.Fatalf("mkdir dataset: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeCatalog(t *testing.T, env *cliTestEnv, records ...catalog.TrackRecord) {
	t.Helper()
	store := catalog.NewStore(env.catalogPath(), "", nil)
	if err := store.Save(records); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
}

func readCatalog(t *testing.T, env *cliTestEnv) []catalog.TrackRecord {
	t.Helper()
	records, err := catalog.NewStore(env.catalogPath(), "", nil).Load()
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	return records
}

func decodeJSON(t *testing.T, data string, v any) {
	t.Helper()
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("decode json: %v\n%s", err, data)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func track(index int, title, artist, file string) catalog.TrackRecord {
	return catalog.TrackRecord{Index: catalog.IntPtr(index), Title: title, Artist: artist, File: file}
}
