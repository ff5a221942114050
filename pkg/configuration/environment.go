package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/villagepulse/villagepulse/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"villagepulse"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// DirectoryOptions configures the external HR directory the sync engine
// pulls employee records from.
type DirectoryOptions struct {
	// Driver selects the directory client implementation: http or mock.
	Driver       string        `env:"HRIS_DIRECTORY_DRIVER" envDefault:"http"`
	BaseURL      string        `env:"HRIS_DIRECTORY_BASE_URL"`
	APIToken     string        `env:"HRIS_DIRECTORY_API_TOKEN"`
	FetchTimeout time.Duration `env:"HRIS_DIRECTORY_FETCH_TIMEOUT" envDefault:"30s"`
	MaxRetries   int           `env:"HRIS_DIRECTORY_MAX_RETRIES" envDefault:"3"`
	PageSize     int           `env:"HRIS_DIRECTORY_PAGE_SIZE" envDefault:"200"`
	// ScheduleSecret authenticates the periodic sync trigger endpoint.
	ScheduleSecret string `env:"HRIS_SYNC_SCHEDULE_SECRET"`
}

func (d *DirectoryOptions) Validate() error {
	switch d.Driver {
	case "http", "mock":
	default:
		return fmt.Errorf("invalid HRIS_DIRECTORY_DRIVER=%q (expected http|mock)", d.Driver)
	}
	if d.Driver == "http" && strings.TrimSpace(d.BaseURL) == "" {
		return fmt.Errorf("HRIS_DIRECTORY_BASE_URL is required when HRIS_DIRECTORY_DRIVER=http")
	}
	if d.FetchTimeout <= 0 {
		return fmt.Errorf("HRIS_DIRECTORY_FETCH_TIMEOUT must be positive, got %s", d.FetchTimeout)
	}
	if d.MaxRetries < 1 || d.MaxRetries > 10 {
		return fmt.Errorf("HRIS_DIRECTORY_MAX_RETRIES out of range [1,10], got %d", d.MaxRetries)
	}
	return nil
}

type AuthzOptions struct {
	ModelPath  string `env:"AUTHZ_MODEL_PATH" envDefault:"config/access/model.conf"`
	PolicyPath string `env:"AUTHZ_POLICY_PATH" envDefault:"config/access/policy.csv"`
	Mode       string `env:"AUTHZ_MODE" envDefault:"enforce"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"villagepulse"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database      DatabaseOptions
	Directory     DirectoryOptions
	Authz         AuthzOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions

	ServerPort       int      `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string   `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string   `env:"-"`
	Domain           string   `env:"DOMAIN" envDefault:"localhost"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	PageSize         int      `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int      `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel         string   `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string   `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Incoming header holding the request id; a uuidv4 is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Incoming header holding the client IP; RemoteAddr is used when absent.
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production {
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Directory.Validate(); err != nil {
		return fmt.Errorf("directory configuration error: %w", err)
	}
	if err := c.validateAuthzMode(); err != nil {
		return err
	}
	if c.GoAppEnvironment == Production && strings.TrimSpace(c.Directory.ScheduleSecret) == "" {
		return fmt.Errorf("HRIS_SYNC_SCHEDULE_SECRET is required in production")
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	return nil
}

func (c *Configuration) validateAuthzMode() error {
	mode := strings.ToLower(strings.TrimSpace(c.Authz.Mode))
	if mode == "" {
		mode = "enforce"
	}
	switch mode {
	case "disabled", "shadow", "enforce":
	default:
		return fmt.Errorf("invalid AUTHZ_MODE=%q (expected disabled|shadow|enforce)", c.Authz.Mode)
	}
	c.Authz.Mode = mode
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
