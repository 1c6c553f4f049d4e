package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"

	ProviderJudge     = "judge"
	ProviderEmbedding = "embedding"
)

type Config struct {
	ServiceName string            `mapstructure:"service_name"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	GRPC        GRPCConfig        `mapstructure:"grpc"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	RecordStore RecordStoreConfig `mapstructure:"record_store"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	SQLite      SQLiteConfig      `mapstructure:"sqlite"`
	Redis       RedisConfig       `mapstructure:"redis"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Minio       MinioConfig       `mapstructure:"minio"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Similarity  SimilarityConfig  `mapstructure:"similarity"`
	Handoff     HandoffConfig     `mapstructure:"handoff"`
	Fixture     FixtureConfig     `mapstructure:"fixture"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type GRPCConfig struct {
	Port string `mapstructure:"port"`
}

type MetricsConfig struct {
	Port string `mapstructure:"port"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output_file"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// RecordStoreConfig selects where postings are persisted beyond the process.
type RecordStoreConfig struct {
	Driver string `mapstructure:"driver"`
	Table  string `mapstructure:"table"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig is optional. An empty address disables the remote image cache.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	ImageTTL time.Duration `mapstructure:"image_ttl"`
}

// NATSConfig is optional. An empty URL disables event publishing.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
}

type MinioConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	UploadPreset  string `mapstructure:"upload_preset"`
}

// SMTPConfig is optional. Without a host no claim desk mail is sent.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	DeskTo   string `mapstructure:"desk_to"`
}

type IdentityConfig struct {
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type SimilarityConfig struct {
	Provider      string        `mapstructure:"provider"`
	JudgeAPIKey   string        `mapstructure:"judge_api_key"`
	JudgeModel    string        `mapstructure:"judge_model"`
	ModelPath     string        `mapstructure:"model_path"`
	OutputLayer   string        `mapstructure:"output_layer"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

type HandoffConfig struct {
	MaxSessions    int           `mapstructure:"max_sessions"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	ScoringTimeout time.Duration `mapstructure:"scoring_timeout"`
	NoticeTTL      time.Duration `mapstructure:"notice_ttl"`
}

type FixtureConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "lostfound")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.max_upload_bytes", 10<<20)
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("grpc.port", "50057")
	v.SetDefault("metrics.port", "9097")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output_file", "stdout")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("record_store.driver", DriverMemory)
	v.SetDefault("record_store.table", "items")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.username", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.database", "lostfound_db")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.min_pool_size", 0)
	v.SetDefault("mongo.max_pool_size", 100)

	v.SetDefault("sqlite.path", "lostfound.db")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.image_ttl", "10m")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.connect_timeout", "5s")
	v.SetDefault("nats.subject_prefix", "lostfound")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.bucket", "lostfound-photos")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.upload_preset", "lostfound")

	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.public_base_url", "")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.desk_to", "")

	v.SetDefault("identity.secret", "")
	v.SetDefault("identity.cookie_name", "lf_session")
	v.SetDefault("identity.ttl", "720h")
	v.SetDefault("identity.secure", false)

	v.SetDefault("similarity.provider", ProviderJudge)
	v.SetDefault("similarity.judge_api_key", "")
	v.SetDefault("similarity.judge_model", "gemini-2.5-flash")
	v.SetDefault("similarity.model_path", "")
	v.SetDefault("similarity.output_layer", "")
	v.SetDefault("similarity.fetch_timeout", "15s")
	v.SetDefault("similarity.max_image_bytes", 10<<20)

	v.SetDefault("handoff.max_sessions", 1024)
	v.SetDefault("handoff.session_ttl", "30m")
	v.SetDefault("handoff.scoring_timeout", "45s")
	v.SetDefault("handoff.notice_ttl", "3500ms")

	v.SetDefault("fixture.path", "data/seed.json")
}

// LoadConfig reads defaults, an optional YAML file at path (file or directory),
// a .env file if present and LOSTFOUND_-prefixed environment variables, in
// increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if fi, err := os.Stat(path); err == nil {
		if !fi.IsDir() {
			v.SetConfigFile(path)
		} else {
			v.AddConfigPath(path)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("LOSTFOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.RecordStore.Driver {
	case DriverMongo, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("config: unknown record_store.driver %q", c.RecordStore.Driver)
	}
	if c.RecordStore.Table == "" {
		return errors.New("config: record_store.table must not be empty")
	}

	switch c.Similarity.Provider {
	case ProviderJudge:
		if c.Similarity.JudgeAPIKey == "" {
			return errors.New("config: similarity.judge_api_key is required for the judge provider")
		}
	case ProviderEmbedding:
		if c.Similarity.ModelPath == "" {
			return errors.New("config: similarity.model_path is required for the embedding provider")
		}
	default:
		return fmt.Errorf("config: unknown similarity.provider %q", c.Similarity.Provider)
	}

	if c.Identity.Secret == "" {
		return errors.New("config: identity.secret must not be empty")
	}
	if c.Handoff.MaxSessions <= 0 {
		return errors.New("config: handoff.max_sessions must be positive")
	}
	return nil
}
