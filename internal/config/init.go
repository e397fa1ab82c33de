package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/translate"
)

// Example returns the configuration written by Init for lang.
func Example(lang string) *Config {
	cfg := &Config{
		InputPath:  "src",
		OutputPath: "dist",
		Lang:       lang,
		Extensions: []ExtensionConfig{
			{Extname: ".wxs", Translator: translate.NamePassthrough},
		},
		RespectGitignore: true,
		Watch:            WatchConfig{AggregateTimeout: 300 * time.Millisecond},
		History:          HistoryConfig{Path: ".twm/history.db"},
		Notify:           NotifyConfig{NATSURL: "${TWM_NATS_URL}"},
		Logging:          LoggingConfig{Level: "info", Format: "text"},
	}
	ApplyDefaults(cfg)
	return cfg
}

// Init writes Example(lang) to configPath. An existing file is kept unless force is set.
func Init(configPath, lang string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}
	if lang == "" {
		lang = DefaultLang
	}

	data, err := yaml.Marshal(Example(lang))
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
