package model

import (
	"os"
	"strings"

	"github.com/kbukum/audioreport/process"
)

// AcceleratorProbe reports whether a CUDA accelerator is usable.
type AcceleratorProbe func() bool

// DetectCUDA looks for an NVIDIA driver. CUDA_VISIBLE_DEVICES set to an
// empty value or -1 hides all devices.
func DetectCUDA() bool {
	if v, ok := os.LookupEnv("CUDA_VISIBLE_DEVICES"); ok {
		v = strings.TrimSpace(v)
		if v == "" || v == "-1" {
			return false
		}
	}
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	_, err := process.LookPath("nvidia-smi")
	return err == nil
}

// SelectDevice returns the pinned device, or cuda when probe finds an
// accelerator and cpu otherwise.
func SelectDevice(pinned string, probe AcceleratorProbe) string {
	switch pinned {
	case DeviceCUDA, DeviceCPU:
		return pinned
	}
	if probe != nil && probe() {
		return DeviceCUDA
	}
	return DeviceCPU
}
