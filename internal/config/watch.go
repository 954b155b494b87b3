package config

import (
	"fmt"
	"strings"

	"chorus/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch reloads the config whenever the file at path changes and hands the
// fresh config to onChange. A reload that fails to parse or validate is
// logged and dropped; the previous config stays in effect. Include files are
// re-resolved on every reload but only the root path is watched.
func Watch(path string, onChange func(*Config)) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config watch requires path")
	}
	if onChange == nil {
		return fmt.Errorf("config watch requires a change handler")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config for watch failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		logger.Debugf("config change detected: %s (%s)", evt.Name, evt.Op)
		cfg, err := Load(path)
		if err != nil {
			logger.Errorf("config reload failed, keeping previous config: %v", err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
