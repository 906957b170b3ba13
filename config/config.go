// Package config loads the output engine settings and the table of
// physical sizes overriding what broken monitors report.
package config

import (
	"os"
	"path/filepath"

	"github.com/linuxdeepin/go-lib/log"
	"github.com/linuxdeepin/go-lib/xdg/basedir"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

var logger = log.NewLogger("kwin/drm/config")

const (
	DefaultCard = "/dev/dri/card0"

	// envNoAtomic forces the legacy mode setting path when set to
	// anything but "0".
	envNoAtomic = "KWIN_DRM_NO_AMS"
)

type Config struct {
	Card   string `yaml:"card"`
	Atomic bool   `yaml:"atomic"`
	// DeleteBufferAfterPageFlip frees buffers once a flip replaced them.
	DeleteBufferAfterPageFlip bool `yaml:"deleteBufferAfterPageFlip"`
	SoftwareCursor            bool `yaml:"softwareCursor"`
	// CursorSize is the hardware cursor edge; 0 asks the driver.
	CursorSize    int    `yaml:"cursorSize"`
	Debug         bool   `yaml:"debug"`
	OverridesFile string `yaml:"overridesFile"`
}

func Default() *Config {
	return &Config{
		Card:          DefaultCard,
		Atomic:        true,
		OverridesFile: filepath.Join(Dir(), "overrides.yaml"),
	}
}

// Dir is where the configuration lives.
func Dir() string {
	return filepath.Join(basedir.GetUserConfigDir(), "deepin/kwin-drm")
}

func DefaultFile() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads filename over the defaults. A missing file is not an error.
func Load(filename string) (*Config, error) {
	c := Default()
	// #nosec G304
	data, err := os.ReadFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		logger.Debugf("%s not found, using defaults", filename)
	} else if err := yaml.Unmarshal(data, c); err != nil {
		return nil, xerrors.Errorf("parsing %s: %w", filename, err)
	}

	if v, ok := os.LookupEnv(envNoAtomic); ok && v != "0" {
		logger.Info("atomic mode setting disabled by", envNoAtomic)
		c.Atomic = false
	}
	if c.Card == "" {
		c.Card = DefaultCard
	}
	if c.CursorSize < 0 {
		c.CursorSize = 0
	}
	return c, nil
}

func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(filename), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
