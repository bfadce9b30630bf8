package model_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/audioreport/model"
	"github.com/kbukum/audioreport/model/testutil"
)

func TestInspectCheckpoint(t *testing.T) {
	dir := t.TempDir()

	zipPath := testutil.WriteTorchCheckpoint(t, dir, "zip.pth")
	if f, err := model.InspectCheckpoint(zipPath); err != nil || f != model.FormatTorchZip {
		t.Errorf("zip checkpoint: got %q, %v", f, err)
	}

	picklePath := testutil.WritePickleCheckpoint(t, dir, "legacy.pth")
	if f, err := model.InspectCheckpoint(picklePath); err != nil || f != model.FormatPickle {
		t.Errorf("pickle checkpoint: got %q, %v", f, err)
	}

	corrupt := testutil.WriteCorruptCheckpoint(t, dir, "corrupt.pth")
	if _, err := model.InspectCheckpoint(corrupt); !errors.Is(err, model.ErrUnrecognizedCheckpoint) {
		t.Errorf("corrupt checkpoint: expected ErrUnrecognizedCheckpoint, got %v", err)
	}

	short := filepath.Join(dir, "short.pth")
	if err := os.WriteFile(short, []byte{0x80}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := model.InspectCheckpoint(short); !errors.Is(err, model.ErrUnrecognizedCheckpoint) {
		t.Errorf("short file: expected ErrUnrecognizedCheckpoint, got %v", err)
	}

	if _, err := model.InspectCheckpoint(filepath.Join(dir, "missing.pth")); !os.IsNotExist(err) {
		t.Errorf("missing file: expected not-exist error, got %v", err)
	}
}

func TestInspectCheckpoint_ZipWithoutDataPickle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pth")
	if err := os.WriteFile(path, minimalZip(t, "readme.txt"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := model.InspectCheckpoint(path); !errors.Is(err, model.ErrUnrecognizedCheckpoint) {
		t.Errorf("expected ErrUnrecognizedCheckpoint, got %v", err)
	}
}

func TestSelectDevice(t *testing.T) {
	yes := func() bool { return true }
	no := func() bool { return false }

	tests := []struct {
		pinned string
		probe  model.AcceleratorProbe
		want   string
	}{
		{"auto", yes, "cuda"},
		{"auto", no, "cpu"},
		{"", nil, "cpu"},
		{"cpu", yes, "cpu"},
		{"cuda", no, "cuda"},
	}
	for _, tt := range tests {
		if got := model.SelectDevice(tt.pinned, tt.probe); got != tt.want {
			t.Errorf("SelectDevice(%q): expected %q, got %q", tt.pinned, tt.want, got)
		}
	}
}

func TestDetectCUDA_HiddenDevices(t *testing.T) {
	t.Setenv("CUDA_VISIBLE_DEVICES", "-1")
	if model.DetectCUDA() {
		t.Error("expected no accelerator when CUDA_VISIBLE_DEVICES=-1")
	}
}
