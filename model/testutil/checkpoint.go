package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// WriteTorchCheckpoint writes a minimal torch.save style zip archive to
// dir/name and returns its path.
func WriteTorchCheckpoint(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create checkpoint: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range []struct{ name, body string }{
		{"archive/data.pkl", "\x80\x02}q\x00."},
		{"archive/version", "3\n"},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			t.Fatalf("write checkpoint: %v", err)
		}
		if _, err := w.Write([]byte(entry.body)); err != nil {
			t.Fatalf("write checkpoint: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close checkpoint: %v", err)
	}
	return path
}

// WritePickleCheckpoint writes a legacy pickle-format checkpoint.
func WritePickleCheckpoint(t testing.TB, dir, name string) string {
	return writeFile(t, dir, name, "\x80\x02}q\x00.")
}

// WriteCorruptCheckpoint writes a file that is not a checkpoint.
func WriteCorruptCheckpoint(t testing.TB, dir, name string) string {
	return writeFile(t, dir, name, "this is not a checkpoint")
}

// WriteAllowListed writes whisper_<id>.pth for each id into dir.
func WriteAllowListed(t testing.TB, dir string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		WriteTorchCheckpoint(t, dir, "whisper_"+id+".pth")
	}
}

func writeFile(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
