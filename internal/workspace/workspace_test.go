package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLockCycle(t *testing.T) {
	w := New("corpus")
	w.Add("a.wav")
	w.Add("a.xra")
	if err := w.Check("a.xra", true); err != nil {
		t.Fatal(err)
	}
	if got := w.Checked(); len(got) != 1 || got[0] != "a.xra" {
		t.Fatalf("Checked() = %v", got)
	}

	w.Lock("a.xra")
	if st, _ := w.State("a.xra"); st != Locked {
		t.Fatalf("state = %s, want locked", st)
	}
	if err := w.Remove("a.xra"); !errors.Is(err, ErrLocked) {
		t.Errorf("Remove locked: err = %v", err)
	}
	if err := w.Check("a.xra", false); !errors.Is(err, ErrLocked) {
		t.Errorf("Check locked: err = %v", err)
	}
	if err := w.Unlock("a.xra"); err != nil {
		t.Fatal(err)
	}
	if st, _ := w.State("a.xra"); st != Checked {
		t.Errorf("state after unlock = %s, want checked", st)
	}
	if err := w.Unlock("a.xra"); !errors.Is(err, ErrNotLocked) {
		t.Errorf("double unlock: err = %v", err)
	}
	if err := w.Remove("a.xra"); err != nil {
		t.Errorf("Remove: %v", err)
	}
	if _, err := w.State("a.xra"); !errors.Is(err, ErrUnknownFile) {
		t.Errorf("removed file still known")
	}
}

func TestLockAddsUnknownFile(t *testing.T) {
	w := New("x")
	w.Lock("new.srt")
	if st, err := w.State("new.srt"); err != nil || st != Locked {
		t.Errorf("state = %s, %v", st, err)
	}
	if len(w.Files) != 1 {
		t.Errorf("files = %d", len(w.Files))
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := New("corpus")
	w.Lock(audio)
	w.Add(filepath.Join(dir, "gone.xra"))
	path := filepath.Join(dir, "corpus.json")
	if err := Save(path, w); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if st, _ := w.State(audio); st != Locked {
		t.Errorf("Save changed the live workspace")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != w.ID || got.Name != "corpus" || len(got.Files) != 2 {
		t.Fatalf("loaded = %+v", got)
	}
	if st, _ := got.State(audio); st != Checked {
		t.Errorf("lock persisted: %s", st)
	}
	got.Refresh()
	if st, _ := got.State(filepath.Join(dir, "gone.xra")); st != Missing {
		t.Errorf("missing file state = %s", st)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad version", `{"version": 9, "files": []}`},
		{"duplicate", `{"version": 1, "files": [{"path": "a"}, {"path": "a"}]}`},
		{"empty path", `{"version": 1, "files": [{"path": ""}]}`},
		{"bad state", `{"version": 1, "files": [{"path": "a", "state": "open"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "w.json")
			os.WriteFile(path, []byte(tt.data), 0o644)
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted %s", tt.data)
			}
		})
	}
}
