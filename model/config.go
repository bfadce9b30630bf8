package model

// Device values accepted by Config.Device.
const (
	DeviceAuto = "auto"
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// Config configures model resolution and loading.
type Config struct {
	// Dir holds the allow-listed weights files (whisper_<id>.pth).
	Dir string `yaml:"dir" mapstructure:"dir" validate:"required"`
	// Weights overrides the weights path for individual allow-listed ids.
	Weights map[string]string `yaml:"weights" mapstructure:"weights"`
	// Device pins the compute device. "auto" detects an accelerator per load.
	Device string `yaml:"device" mapstructure:"device" validate:"omitempty,oneof=auto cuda cpu"`
	// StrictCustom applies weights to custom models with strict name matching.
	StrictCustom bool `yaml:"strict_custom" mapstructure:"strict_custom"`
	// Language is passed to the backend as the expected audio language.
	Language string `yaml:"language" mapstructure:"language"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "models"
	}
	if c.Device == "" {
		c.Device = DeviceAuto
	}
}
