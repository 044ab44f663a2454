package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"songbook/internal/testsupport"
)

func TestReconcileCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.Touch(t, env.datasetDir, "001 - Song A.wav", "Song B (Live).wav")
	writeCatalog(t, env,
		track(1, "Song A", "Singer", ""),
		track(2, "Song B", "Band", ""),
		track(3, "Lost Song", "Nobody", "gone.wav"),
	)

	out, err := runCLI(t, env, "reconcile", "--verbose")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "3 records, 2 files")
	requireContains(t, out, "Lost Song")
	requireContains(t, out, "gone.wav")

	records := readCatalog(t, env)
	if records[0].File != "001 - Song A.wav" || records[1].File != "Song B (Live).wav" || records[2].File != "gone.wav" {
		t.Fatalf("unexpected catalog %+v", records)
	}

	out, err = runCLI(t, env, "unmatched")
	if err != nil {
		t.Fatalf("unmatched: %v", err)
	}
	requireContains(t, out, "Lost Song")
}

func TestReconcileCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.Touch(t, env.datasetDir, "001 - Song A.wav")
	writeCatalog(t, env, track(1, "Song A", "", ""), track(2, "Other", "", ""))

	out, err := runCLI(t, env, "--json", "reconcile")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	var payload reconcileJSON
	decodeJSON(t, out, &payload)
	if payload.RunID == "" || payload.Matched != 1 || len(payload.Unmatched) != 1 || len(payload.Outcomes) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Strategies["index"] != 1 || payload.Strategies["unmatched"] != 1 {
		t.Fatalf("unexpected strategies %v", payload.Strategies)
	}
	if payload.Unmatched[0].ExpectedFile != nil {
		t.Fatalf("expected null expected_file, got %v", *payload.Unmatched[0].ExpectedFile)
	}
}

func TestReconcileCommandRenameAndDryRun(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.Touch(t, env.datasetDir, "01_song a.wav")
	writeCatalog(t, env, track(1, "Song A", "", ""))

	out, err := runCLI(t, env, "reconcile", "--rename", "--dry-run")
	if err != nil {
		t.Fatalf("reconcile dry run: %v", err)
	}
	requireContains(t, out, "[dry run]")
	if names := testsupport.ListDir(t, env.datasetDir); !slices.Contains(names, "01_song a.wav") {
		t.Fatalf("dry run moved files: %v", names)
	}

	if _, err := runCLI(t, env, "reconcile", "--rename"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if names := testsupport.ListDir(t, env.datasetDir); !slices.Contains(names, "001 - Song A.wav") {
		t.Fatalf("file not renamed: %v", names)
	}
	if records := readCatalog(t, env); records[0].File != "001 - Song A.wav" {
		t.Fatalf("catalog not updated: %+v", records[0])
	}
}

func TestReconcileCommandEmptyCatalog(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, err := runCLI(t, env, "reconcile")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "nothing to reconcile")
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.Touch(t, env.datasetDir, "001 - Song A.wav")
	writeCatalog(t, env, track(1, "Song A", "", ""))

	out, err := runCLI(t, env, "--json", "reconcile")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	var rec reconcileJSON
	decodeJSON(t, out, &rec)

	out, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, shortID(rec.RunID))

	out, err = runCLI(t, env, "--json", "history", shortID(rec.RunID))
	if err != nil {
		t.Fatalf("history run: %v", err)
	}
	var run runJSON
	decodeJSON(t, out, &run)
	if run.ID != rec.RunID || len(run.Assignments) != 1 || run.Assignments[0].File != "001 - Song A.wav" {
		t.Fatalf("unexpected run %+v", run)
	}

	if _, err := runCLI(t, env, "history", "does-not-exist"); err == nil {
		t.Fatal("expected an error for an unknown run")
	}

	out, err = runCLI(t, env, "history", "prune", "--older-than", "1h")
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 0 run(s)")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.Touch(t, env.datasetDir, "001 - Song A.wav", "099 - Extra.wav")
	writeCatalog(t, env, track(1, "Song A", "", "001 - Song A.wav"), track(2, "Song B", "", "002 - Song B.wav"))

	out, err := runCLI(t, env, "--json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var payload statusJSON
	decodeJSON(t, out, &payload)
	if payload.Records != 2 || payload.Files != 2 || len(payload.Missing) != 1 || len(payload.Orphans) != 1 {
		t.Fatalf("unexpected status %+v", payload)
	}
	if payload.Orphans[0] != "099 - Extra.wav" {
		t.Fatalf("unexpected orphan %q", payload.Orphans[0])
	}

	out, err = runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "002 - Song B.wav")
	requireContains(t, out, "099 - Extra.wav")
}

func TestSearchCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	writeCatalog(t, env, track(1, "Good Day", "IU", "001 - Good Day.wav"), track(2, "Dynamite", "BTS", ""))

	out, err := runCLI(t, env, "search", "good")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Good Day")
	if strings.Contains(out, "Dynamite") {
		t.Fatalf("unexpected hit in %q", out)
	}

	out, err = runCLI(t, env, "search", "nothing", "here")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, `No tracks match "nothing here"`)
}

func TestPruneCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.Touch(t, env.datasetDir, "NA-1.wav", "001 - Song A.wav")
	writeCatalog(t, env, track(1, "Song A", "", "001 - Song A.wav"), track(2, "NA", "", "NA-1.wav"))

	out, err := runCLI(t, env, "prune")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Deleted 1 placeholder file(s)")
	requireContains(t, out, "Dropped 1 record(s), kept 1")
	if records := readCatalog(t, env); len(records) != 1 {
		t.Fatalf("unexpected catalog %+v", records)
	}
}

func TestLyricsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"hits":[{"result":{"url":"https://genius.test/a"}}]}}`))
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, "[lyrics]\napi_token = \"tok\"\nbase_url = \""+srv.URL+"\"\nrequests_per_minute = 6000\n")
	writeCatalog(t, env, track(1, "Song A", "Singer", "001 - Song A.wav"))

	out, err := runCLI(t, env, "lyrics")
	if err != nil {
		t.Fatalf("lyrics: %v", err)
	}
	requireContains(t, out, "1 saved")
	data, err := os.ReadFile(filepath.Join(env.datasetDir, "lyrics", "001 - Song A.txt"))
	if err != nil || string(data) != "https://genius.test/a" {
		t.Fatalf("lyrics file = %q, %v", data, err)
	}
}

func TestLyricsCommandRequiresToken(t *testing.T) {
	env := setupCLITestEnv(t, "")
	if _, err := runCLI(t, env, "lyrics"); err == nil || !strings.Contains(err.Error(), "GENIUS_API_TOKEN") {
		t.Fatalf("expected a token error, got %v", err)
	}
}

func TestSeparateCommand(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "fake-spleeter")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nmkdir -p \"$5\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	env := setupCLITestEnv(t, "[separation]\nbinary = \""+bin+"\"\n")
	testsupport.Touch(t, env.datasetDir, "001 - Song A.wav")
	writeCatalog(t, env, track(1, "Song A", "", "001 - Song A.wav"), track(2, "Song B", "", "002 - Song B.wav"))

	out, err := runCLI(t, env, "separate")
	if err != nil {
		t.Fatalf("separate: %v", err)
	}
	requireContains(t, out, "1 separated, 1 missing-input")
	if _, err := os.Stat(filepath.Join(env.datasetDir, "separated", "001-song-a")); err != nil {
		t.Fatalf("expected stem directory: %v", err)
	}

	out, err = runCLI(t, env, "separate")
	if err != nil {
		t.Fatalf("separate rerun: %v", err)
	}
	requireContains(t, out, "1 existing")
}

func TestDownloadCommandRequiresURL(t *testing.T) {
	env := setupCLITestEnv(t, "")
	if _, err := runCLI(t, env, "download"); err == nil || !strings.Contains(err.Error(), "no playlist url") {
		t.Fatalf("expected a missing url error, got %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.datasetDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestInvalidLogLevelFlag(t *testing.T) {
	env := setupCLITestEnv(t, "")
	if _, err := runCLI(t, env, "--log-level", "loud", "status"); err == nil {
		t.Fatal("expected an invalid log level to fail")
	}
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t, "[separation]\nbinary = \"clearly-not-present-spleeter\"\n")

	out, err := runCLI(t, env, "--json", "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var checks []checkJSON
	decodeJSON(t, out, &checks)
	var spleeter *checkJSON
	for i := range checks {
		if checks[i].Name == "spleeter" {
			spleeter = &checks[i]
		}
	}
	if spleeter == nil || spleeter.Passed || !spleeter.Optional {
		t.Fatalf("unexpected spleeter check in %+v", checks)
	}

	if err := os.WriteFile(env.catalogPath(), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, env, "doctor"); err == nil {
		t.Fatal("expected a corrupt catalog to fail doctor")
	}
}

func TestConfigShowMasksToken(t *testing.T) {
	env := setupCLITestEnv(t, "[lyrics]\napi_token = \"secret-token\"\n")

	out, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "secret-token") {
		t.Fatalf("token leaked in %q", out)
	}
	requireContains(t, out, "dataset_dir")
	requireContains(t, out, env.datasetDir)
}
