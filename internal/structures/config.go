package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath       string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval   time.Duration `yaml:"saveInterval" validate:"required|min:1"`
	ColdStorageDir string        `yaml:"coldStorageDir"`
	ColdTTL        time.Duration `yaml:"coldTTL"`
}

type StorageConfig struct {
	Driver    string        `yaml:"driver" validate:"required|in:none,file,http,sqlite"`
	Dir       string        `yaml:"dir"`
	URL       string        `yaml:"url"`
	DSN       string        `yaml:"dsn"`
	Timeout   time.Duration `yaml:"timeout"`
	QueueSize int           `yaml:"queueSize"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type EditorConfig struct {
	MaxSessions     int           `yaml:"maxSessions"`
	SessionTTL      time.Duration `yaml:"sessionTTL"`
	MaxDocumentSize int           `yaml:"maxDocumentSize"`
}

type RendererConfig struct {
	Headless   bool          `yaml:"headless"`
	BrowserURL string        `yaml:"browserURL"`
	Workers    int           `yaml:"workers"`
	Timeout    time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
	TTL     int  `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Storage     StorageConfig  `yaml:"storage"`
	Logger      LoggerConfig   `yaml:"logger"`
	Editor      EditorConfig   `yaml:"editor"`
	Renderer    RendererConfig `yaml:"renderer"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}
