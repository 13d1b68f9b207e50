package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Media      MediaConfig
	Renditions RenditionsConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
}

// ServerConfig holds HTTP server configuration. Rate limiting is per client
// IP; a non-positive RateLimitRPS disables it.
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MediaConfig holds external tool paths and the shared directories for
// uploaded, processed and rendition files.
type MediaConfig struct {
	FFmpegPath   string
	FFprobePath  string
	UploadDir    string
	ProcessedDir string
	QualitiesDir string
	FontDir      string
}

// RenditionsConfig holds background rendition generation settings.
type RenditionsConfig struct {
	MaxConcurrent int
	ClaimTTL      time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled           bool
	ServiceName       string
	CollectorEndpoint string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")
	viper.SetDefault("server.rateLimitRPS", 20)
	viper.SetDefault("server.rateLimitBurst", 40)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "videoforge")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxConns", 25)
	viper.SetDefault("database.minConns", 5)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Media defaults
	viper.SetDefault("media.ffmpegPath", "ffmpeg")
	viper.SetDefault("media.ffprobePath", "ffprobe")
	viper.SetDefault("media.uploadDir", "./temp_uploads")
	viper.SetDefault("media.processedDir", "./processed")
	viper.SetDefault("media.qualitiesDir", "./qualities")
	viper.SetDefault("media.fontDir", "./assets/fonts")

	// Rendition defaults
	viper.SetDefault("renditions.maxConcurrent", 2)
	viper.SetDefault("renditions.claimTTL", "30m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.serviceName", "videoforge-api")
	viper.SetDefault("tracing.collectorEndpoint", "http://localhost:14268/api/traces")
}

// Validate checks the external tool paths and creates the shared media
// directories. Called once at startup so tool paths are never re-checked on
// the request path.
func (c *Config) Validate() error {
	if err := checkTool(c.Media.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	if err := checkTool(c.Media.FFprobePath); err != nil {
		return fmt.Errorf("ffprobe: %w", err)
	}

	for _, dir := range []string{c.Media.UploadDir, c.Media.ProcessedDir, c.Media.QualitiesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if c.Renditions.MaxConcurrent < 1 {
		return fmt.Errorf("renditions.maxConcurrent must be at least 1")
	}

	return nil
}

func checkTool(path string) error {
	if strings.ContainsRune(path, os.PathSeparator) {
		_, err := os.Stat(path)
		return err
	}
	_, err := exec.LookPath(path)
	return err
}
