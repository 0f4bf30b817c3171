package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hayasedb/podplay/internal/models"
)

var ValidQualities = []int{144, 240, 360, 480, 720, 1080, 1440, 2160}

type Config struct {
	v *viper.Viper
}

func NewConfig() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	return NewConfigAt(configDir)
}

func NewConfigAt(configDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PODPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	config := &Config{v: v}

	if err := config.Load(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		_ = config.Save()
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := models.DefaultPlayerConfig()

	v.SetDefault("autoplay", defaults.AutoPlay)
	v.SetDefault("loop", defaults.Looping)
	v.SetDefault("wakelock", defaults.WakeLock)
	v.SetDefault("muted", defaults.StartMuted)

	v.SetDefault("quality", 0)
	v.SetDefault("quality-priority", defaults.QualityPriority)
	v.SetDefault("double-tap-seconds", defaults.DoubleTapSeconds)
	v.SetDefault("hwdec", defaults.HWDec)

	v.SetDefault("show-more-icon", true)
	v.SetDefault("gate-timeout", 0)
	v.SetDefault("timeout", 10)
}

func getConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "podplay"), nil
}

func (c *Config) Load() error {
	return c.v.ReadInConfig()
}

func (c *Config) Save() error {
	if err := c.v.WriteConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return c.v.SafeWriteConfig()
		}
		return err
	}
	return nil
}

func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) AllSettings() map[string]interface{} {
	return c.v.AllSettings()
}

func (c *Config) GetQuality() int {
	return c.v.GetInt("quality")
}

func (c *Config) GetQualityPriority() []int {
	return c.v.GetIntSlice("quality-priority")
}

func (c *Config) GetShowMoreIcon() bool {
	return c.v.GetBool("show-more-icon")
}

// GetGateTimeout is how long commands wait for the player to start; zero
// means no limit.
func (c *Config) GetGateTimeout() time.Duration {
	return time.Duration(c.v.GetInt("gate-timeout")) * time.Second
}

func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.v.GetInt("timeout")) * time.Second
}

func (c *Config) PlayerConfig() models.PlayerConfig {
	return models.PlayerConfig{
		AutoPlay:         c.v.GetBool("autoplay"),
		Looping:          c.v.GetBool("loop"),
		WakeLock:         c.v.GetBool("wakelock"),
		StartMuted:       c.v.GetBool("muted"),
		InitialQuality:   c.GetQuality(),
		QualityPriority:  c.GetQualityPriority(),
		DoubleTapSeconds: c.v.GetInt("double-tap-seconds"),
		HWDec:            c.v.GetString("hwdec"),
	}
}

// SetValue validates a user supplied setting before storing it.
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "autoplay", "loop", "wakelock", "muted", "show-more-icon":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value '%s' for %s, expected true or false", value, key)
		}
		c.Set(key, b)

	case "quality":
		q, err := ParseQuality(value)
		if err != nil {
			return err
		}
		c.Set(key, q)

	case "quality-priority":
		var priority []int
		for _, part := range strings.Split(value, ",") {
			q, err := ParseQuality(part)
			if err != nil {
				return err
			}
			priority = append(priority, q)
		}
		c.Set(key, priority)

	case "double-tap-seconds", "gate-timeout", "timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid value '%s' for %s, expected a non-negative number", value, key)
		}
		c.Set(key, n)

	case "hwdec":
		c.Set(key, value)

	default:
		return fmt.Errorf("unknown configuration key '%s'", key)
	}
	return nil
}

// ParseQuality accepts "720" or "720p"; "auto" and "0" mean no preference.
func ParseQuality(s string) (int, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "p")
	if s == "auto" || s == "0" {
		return 0, nil
	}
	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quality '%s'", s)
	}
	for _, valid := range ValidQualities {
		if q == valid {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unsupported quality '%dp'", q)
}
