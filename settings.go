package crucible

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

// RendererConfig is the renderer configuration as stored on disk,
// covering the batch renderer settings and the instancing buffer.
type RendererConfig struct {
	GammaCorrection bool       `toml:"gamma_correction"`
	AmbientMode     string     `toml:"ambient_mode"`
	VSMShadowParams [2]float32 `toml:"vsm_shadow_params"`

	Instancing InstancingConfig `toml:"instancing"`
}

type InstancingConfig struct {
	Enable bool `toml:"enable"`
}

func DefaultRendererConfig() RendererConfig {
	defaults := DefaultBatchRendererSettings()
	return RendererConfig{
		GammaCorrection: defaults.GammaCorrection,
		AmbientMode:     defaults.AmbientMode.String(),
		VSMShadowParams: [2]float32{defaults.VSMShadowParams.X(), defaults.VSMShadowParams.Y()},
		Instancing:      InstancingConfig{Enable: true},
	}
}

// LoadRendererConfig reads a TOML config file. A missing file is not
// an error: defaults are returned, so a config file stays optional.
func LoadRendererConfig(path string) (RendererConfig, error) {
	config := DefaultRendererConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("read renderer config: %w", err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse renderer config %s: %w", path, err)
	}
	return config, nil
}

func SaveRendererConfig(path string, config RendererConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode renderer config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write renderer config: %w", err)
	}
	return nil
}

func ParseAmbientMode(name string) (AmbientMode, error) {
	switch name {
	case "constant":
		return AmbientConstant, nil
	case "flat":
		return AmbientFlat, nil
	case "directional":
		return AmbientDirectional, nil
	}
	return AmbientConstant, fmt.Errorf("unknown ambient mode %q", name)
}

// Settings converts the config into renderer settings.
func (c *RendererConfig) Settings() (BatchRendererSettings, error) {
	mode, err := ParseAmbientMode(c.AmbientMode)
	if err != nil {
		return BatchRendererSettings{}, err
	}
	return BatchRendererSettings{
		GammaCorrection: c.GammaCorrection,
		AmbientMode:     mode,
		VSMShadowParams: mgl32.Vec2{c.VSMShadowParams[0], c.VSMShadowParams[1]},
	}, nil
}

// InstanceSettings derives the instance buffer configuration from the
// config and the resolved renderer settings.
func (c *RendererConfig) InstanceSettings(settings BatchRendererSettings) InstanceBufferSettings {
	return InstanceBufferSettings{
		Enable:      c.Instancing.Enable,
		NumElements: settings.InstanceElements(),
	}
}
