package model

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
)

// CheckpointFormat identifies how a PyTorch checkpoint is serialized.
type CheckpointFormat string

const (
	// FormatTorchZip is the default torch.save format since PyTorch 1.6.
	FormatTorchZip CheckpointFormat = "torch_zip"
	// FormatPickle is the legacy torch.save format.
	FormatPickle CheckpointFormat = "pickle"
)

const (
	pickleProto    = 0x80
	maxPickleProto = 5
)

// ErrUnrecognizedCheckpoint is returned for files that are neither a torch
// zip archive nor a pickle stream.
var ErrUnrecognizedCheckpoint = errors.New("unrecognized checkpoint format")

// InspectCheckpoint checks that path holds a deserializable PyTorch
// checkpoint without loading the tensors.
func InspectCheckpoint(p string) (CheckpointFormat, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header, err := bufio.NewReader(f).Peek(4)
	if err != nil {
		return "", fmt.Errorf("%w: %s is too short", ErrUnrecognizedCheckpoint, p)
	}

	switch {
	case string(header) == "PK\x03\x04":
		return FormatTorchZip, inspectZip(p)
	case header[0] == pickleProto && header[1] >= 2 && header[1] <= maxPickleProto:
		return FormatPickle, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnrecognizedCheckpoint, p)
	}
}

// inspectZip requires the archive to carry a data.pkl record, which holds
// the state dict structure.
func inspectZip(p string) error {
	r, err := zip.OpenReader(p)
	if err != nil {
		return fmt.Errorf("read checkpoint archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if path.Base(f.Name) == "data.pkl" {
			return nil
		}
	}
	return fmt.Errorf("%w: archive %s has no data.pkl", ErrUnrecognizedCheckpoint, p)
}
