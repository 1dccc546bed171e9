package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys, BACKLOG_DB_PATH -> db_path.
const EnvPrefix = "BACKLOG_"

type Config struct {
	DBPath        string        `koanf:"db_path"`
	StorageDriver StorageDriver `koanf:"storage_driver"`
	InputFile     string        `koanf:"input_file"`
	OutputFile    string        `koanf:"output_file"`
	VideosDir     string        `koanf:"videos_dir"`
	YtdlpPath     string        `koanf:"ytdlp_path"`
	YtdlpTimeout  time.Duration `koanf:"ytdlp_timeout"`
	YtdlpFormat   string        `koanf:"ytdlp_format"`
	SubtitleLangs string        `koanf:"subtitle_langs"`
	RateLimit     string        `koanf:"rate_limit"`
	FeedTitle     string        `koanf:"feed_title"`
	FeedLink      string        `koanf:"feed_link"`
	Verbose       bool          `koanf:"verbose"`
	LogFile       string        `koanf:"log_file"`
	AppEnv        AppEnv        `koanf:"app_env"`
}

var defaults = map[string]any{
	"db_path":        "channels.db",
	"storage_driver": "sqlite",
	"input_file":     "youtube-links.txt",
	"output_file":    "output.txt",
	"videos_dir":     "./Videos",
	"ytdlp_path":     "yt-dlp",
	"ytdlp_timeout":  "2h",
	"ytdlp_format":   "22",
	"subtitle_langs": "en",
	"rate_limit":     "1M",
	"feed_title":     "Video backlog",
	"feed_link":      "https://www.youtube.com/",
	"log_file":       "",
	"app_env":        "production",
}

// Load reads configuration from configFile, or from the first backlog.*
// file found in the working directory when configFile is empty.
// Environment variables override file values.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	if configFile == "" {
		configFiles := []string{
			"backlog.yaml",
			"backlog.yml",
			"backlog.json",
			"backlog.toml",
		}
		configFile, _ = lo.Find(configFiles, func(file string) bool {
			_, err := os.Stat(file)
			return err == nil
		})
	}

	if configFile != "" {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	driver, err := ParseStorageDriver(k.String("storage_driver"))
	if err != nil {
		return nil, oops.With("storage_driver", k.String("storage_driver")).Wrap(err)
	}
	cfg.StorageDriver = driver

	if cfg.StorageDriver == StorageDriverSqlite && cfg.DBPath == "" {
		return nil, oops.Errorf("db_path is required for the sqlite storage driver")
	}

	return &cfg, nil
}
