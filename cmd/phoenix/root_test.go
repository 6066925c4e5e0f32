package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sppas/phoenix/internal/cleanup"
	"github.com/sppas/phoenix/internal/ui"
	"github.com/sppas/phoenix/internal/workspace"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func withLaunchStub(t *testing.T) *[]ui.Options {
	t.Helper()
	var got []ui.Options
	orig := launch
	launch = func(opts ui.Options) error {
		got = append(got, opts)
		return nil
	}
	t.Cleanup(func() {
		launch = orig
		_ = cleanup.RunAll()
	})
	return &got
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"coded", errors.New(":ERROR 1090: media not loaded"), 255},
		{"small code", errors.New("open failed :ERROR 110: unknown extension"), 110},
		{"wrapped", errors.Join(errors.New("ctx"), errors.New(":ERROR 42: bad")), 42},
		{"plain", errors.New("boom"), 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "phoenix ") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestFormatsCommand(t *testing.T) {
	out, err := executeCommand(t, "formats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ext := range []string{".xra", ".srt", ".vtt"} {
		if !strings.Contains(out, ext) {
			t.Errorf("output misses %s:\n%s", ext, out)
		}
	}
}

func TestRootLaunchesEditor(t *testing.T) {
	got := withLaunchStub(t)
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.json")

	_, err := executeCommand(t, "--settings", settingsPath, "--splash_delay", "0.5", "a.xra", "b.srt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("launch called %d times, want 1", len(*got))
	}
	opts := (*got)[0]
	if strings.Join(opts.Files, ",") != "a.xra,b.srt" {
		t.Errorf("Files = %v", opts.Files)
	}
	if opts.Settings == nil || opts.Workspace == nil {
		t.Fatal("settings and workspace must be set")
	}
	if opts.SplashDelay.Milliseconds() != 500 {
		t.Errorf("SplashDelay = %v, want 500ms", opts.SplashDelay)
	}

	if err := cleanup.RunAll(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(settingsPath); err != nil {
		t.Errorf("settings not written on exit: %v", err)
	}
}

func TestRootOpensWorkspaceFiles(t *testing.T) {
	got := withLaunchStub(t)
	dir := t.TempDir()
	wsPath := filepath.Join(dir, "corpus.wjson")

	ws := workspace.New("corpus")
	for _, name := range []string{"one.xra", "two.xra"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		ws.Add(filepath.Join(dir, name))
	}
	if err := ws.Check(filepath.Join(dir, "one.xra"), true); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := workspace.Save(wsPath, ws); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := executeCommand(t, "--settings", filepath.Join(dir, "s.json"), "--workspace", wsPath, "extra.srt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	files := (*got)[0].Files
	if len(files) != 2 || filepath.Base(files[0]) != "one.xra" || files[1] != "extra.srt" {
		t.Errorf("Files = %v", files)
	}
	if err := cleanup.RunAll(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	saved, err := workspace.Load(wsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(saved.Files) != 2 {
		t.Errorf("saved workspace has %d files, want 2", len(saved.Files))
	}
}

func TestRootRejectsBadFlags(t *testing.T) {
	withLaunchStub(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--nope"}},
		{"negative splash", []string{"--settings", filepath.Join(t.TempDir(), "s.json"), "--splash_delay", "-1"}},
		{"bad level", []string{"--log_level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(t, tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLicensesCommand(t *testing.T) {
	out, err := executeCommand(t, "licenses")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "fyne.io/fyne/v2") {
		t.Errorf("notices miss fyne:\n%s", out)
	}
}
