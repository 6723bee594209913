package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Streams   RedisConfig
	Cache     CacheConfig
	Log       LogConfig
	Worker    WorkerConfig
	Providers ProvidersConfig
	Modes     map[string]ModeConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig выбирает backend кеша: "redis" или "memory".
type CacheConfig struct {
	Backend   string
	AlertsTTL time.Duration
	StatsTTL  time.Duration
	// MemoryCapacity - предел записей memory backend, 0 - без предела
	MemoryCapacity uint64
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	BatchSize         int64
	PoolSize          int
	SyncInterval      time.Duration
	NotifyInterval    time.Duration
	SyncOnStart       bool
	Modes             []string
}

// ProviderConfig описывает один upstream API.
type ProviderConfig struct {
	BaseURL   string
	AppID     string
	AppKey    string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

type ProvidersConfig struct {
	TMB      ProviderConfig
	Tram     ProviderConfig
	Bicing   ProviderConfig
	Rodalies GTFSConfig
	FGC      GTFSConfig
}

// GTFSConfig - статический zip + GTFS-RT фиды.
type GTFSConfig struct {
	StaticURL       string
	AlertsURL       string
	TripUpdatesURL  string
	RouteFilter     string
	Timeout         time.Duration
	RateLimit       float64
	Burst           int
	StaticReloadTTL time.Duration
}

// ModeConfig - политика Transport Service для одного режима.
type ModeConfig struct {
	LinesTTL     time.Duration
	StationsTTL  time.Duration
	RoutesTTL    time.Duration
	Concurrency  int
	BatchSize    int
	LiveStations bool
}

// AdminConfig - bcrypt-хеш токена для /admin эндпоинтов.
type AdminConfig struct {
	TokenHash string
}

var defaultModes = map[string]ModeConfig{
	"metro":    {LinesTTL: 24 * time.Hour, StationsTTL: 24 * time.Hour, RoutesTTL: 15 * time.Second, Concurrency: 10, BatchSize: 500},
	"bus":      {LinesTTL: 24 * time.Hour, StationsTTL: 24 * time.Hour, RoutesTTL: 20 * time.Second, Concurrency: 5, BatchSize: 500},
	"tram":     {LinesTTL: 24 * time.Hour, StationsTTL: 24 * time.Hour, RoutesTTL: 30 * time.Second, Concurrency: 5, BatchSize: 500},
	"rodalies": {LinesTTL: 24 * time.Hour, StationsTTL: 24 * time.Hour, RoutesTTL: 30 * time.Second, Concurrency: 5, BatchSize: 500},
	"fgc":      {LinesTTL: 24 * time.Hour, StationsTTL: 24 * time.Hour, RoutesTTL: 30 * time.Second, Concurrency: 5, BatchSize: 500},
	"bicing":   {LinesTTL: 24 * time.Hour, StationsTTL: 60 * time.Second, RoutesTTL: 30 * time.Second, Concurrency: 1, BatchSize: 500, LiveStations: true},
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Streams: RedisConfig{
			Host:     viper.GetString("REDIS_STREAMS_HOST"),
			Port:     viper.GetInt("REDIS_STREAMS_PORT"),
			Password: viper.GetString("REDIS_STREAMS_PASSWORD"),
			DB:       viper.GetInt("REDIS_STREAMS_DB"),
		},
		Cache: CacheConfig{
			Backend:        viper.GetString("CACHE_BACKEND"),
			AlertsTTL:      time.Duration(viper.GetInt("ALERTS_CACHE_TTL")) * time.Second,
			StatsTTL:       time.Duration(viper.GetInt("STATS_CACHE_TTL")) * time.Second,
			MemoryCapacity: viper.GetUint64("CACHE_MEMORY_CAPACITY"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			BatchSize:         viper.GetInt64("WORKER_BATCH_SIZE"),
			PoolSize:          viper.GetInt("WORKER_POOL_SIZE"),
			SyncInterval:      time.Duration(viper.GetInt("WORKER_SYNC_INTERVAL")) * time.Second,
			NotifyInterval:    time.Duration(viper.GetInt("WORKER_NOTIFY_INTERVAL")) * time.Second,
			SyncOnStart:       viper.GetBool("WORKER_SYNC_ON_START"),
			Modes:             parseList(viper.GetString("WORKER_MODES")),
		},
		Providers: ProvidersConfig{
			TMB:      loadProvider("TMB"),
			Tram:     loadProvider("TRAM"),
			Bicing:   loadProvider("BICING"),
			Rodalies: loadGTFS("RODALIES"),
			FGC:      loadGTFS("FGC"),
		},
		Modes: loadModes(),
		Admin: AdminConfig{
			TokenHash: viper.GetString("ADMIN_TOKEN_HASH"),
		},
	}

	// Set default values if not provided
	if cfg.Streams.Host == "" {
		cfg.Streams = cfg.Redis
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "redis"
	}
	if cfg.Cache.AlertsTTL == 0 {
		cfg.Cache.AlertsTTL = time.Hour
	}
	if cfg.Cache.StatsTTL == 0 {
		cfg.Cache.StatsTTL = 5 * time.Minute
	}
	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "transit-sync-workers"
	}
	if cfg.Worker.StreamReadTimeout == 0 {
		cfg.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 10
	}
	if cfg.Worker.PoolSize == 0 {
		cfg.Worker.PoolSize = 4
	}
	if cfg.Worker.SyncInterval == 0 {
		cfg.Worker.SyncInterval = 24 * time.Hour
	}
	if cfg.Worker.NotifyInterval == 0 {
		cfg.Worker.NotifyInterval = 5 * time.Minute
	}
	if len(cfg.Worker.Modes) == 0 {
		cfg.Worker.Modes = []string{"metro", "bus", "tram", "rodalies", "fgc", "bicing"}
	}
	applyProviderDefaults(&cfg.Providers)

	return cfg, nil
}

func loadProvider(prefix string) ProviderConfig {
	return ProviderConfig{
		BaseURL:   viper.GetString(prefix + "_BASE_URL"),
		AppID:     viper.GetString(prefix + "_APP_ID"),
		AppKey:    viper.GetString(prefix + "_APP_KEY"),
		Timeout:   time.Duration(viper.GetInt(prefix+"_TIMEOUT")) * time.Second,
		RateLimit: viper.GetFloat64(prefix + "_RATE_LIMIT"),
		Burst:     viper.GetInt(prefix + "_BURST"),
	}
}

func loadGTFS(prefix string) GTFSConfig {
	return GTFSConfig{
		StaticURL:       viper.GetString(prefix + "_GTFS_STATIC_URL"),
		AlertsURL:       viper.GetString(prefix + "_GTFS_ALERTS_URL"),
		TripUpdatesURL:  viper.GetString(prefix + "_GTFS_TRIP_UPDATES_URL"),
		RouteFilter:     viper.GetString(prefix + "_ROUTE_FILTER"),
		Timeout:         time.Duration(viper.GetInt(prefix+"_TIMEOUT")) * time.Second,
		RateLimit:       viper.GetFloat64(prefix + "_RATE_LIMIT"),
		Burst:           viper.GetInt(prefix + "_BURST"),
		StaticReloadTTL: time.Duration(viper.GetInt(prefix+"_STATIC_RELOAD_TTL")) * time.Second,
	}
}

// loadModes читает MODE_<MODE>_* поверх defaultModes.
func loadModes() map[string]ModeConfig {
	modes := make(map[string]ModeConfig, len(defaultModes))
	for name, def := range defaultModes {
		prefix := "MODE_" + strings.ToUpper(name) + "_"
		m := def
		if v := viper.GetInt(prefix + "LINES_TTL"); v > 0 {
			m.LinesTTL = time.Duration(v) * time.Second
		}
		if v := viper.GetInt(prefix + "STATIONS_TTL"); v > 0 {
			m.StationsTTL = time.Duration(v) * time.Second
		}
		if v := viper.GetInt(prefix + "ROUTES_TTL"); v > 0 {
			m.RoutesTTL = time.Duration(v) * time.Second
		}
		if v := viper.GetInt(prefix + "CONCURRENCY"); v > 0 {
			m.Concurrency = v
		}
		if v := viper.GetInt(prefix + "BATCH_SIZE"); v > 0 {
			m.BatchSize = v
		}
		modes[name] = m
	}
	return modes
}

func applyProviderDefaults(p *ProvidersConfig) {
	if p.TMB.BaseURL == "" {
		p.TMB.BaseURL = "https://api.tmb.cat/v1"
	}
	if p.Tram.BaseURL == "" {
		p.Tram.BaseURL = "https://opendata.tram.cat/api/v1"
	}
	if p.Bicing.BaseURL == "" {
		p.Bicing.BaseURL = "https://barcelona.publicbikesystem.net/customer/gbfs/v2/en"
	}
	if p.Rodalies.StaticURL == "" {
		p.Rodalies.StaticURL = "https://ssl.renfe.com/ftransit/Fichero_CER_FOMENTO/fomento_transit.zip"
	}
	if p.Rodalies.AlertsURL == "" {
		p.Rodalies.AlertsURL = "https://gtfsrt.renfe.com/alerts.pb"
	}
	if p.Rodalies.TripUpdatesURL == "" {
		p.Rodalies.TripUpdatesURL = "https://gtfsrt.renfe.com/trip_updates.pb"
	}
	if p.Rodalies.RouteFilter == "" {
		p.Rodalies.RouteFilter = "R"
	}
	if p.FGC.StaticURL == "" {
		p.FGC.StaticURL = "https://www.fgc.cat/google/google_transit.zip"
	}
	if p.FGC.AlertsURL == "" {
		p.FGC.AlertsURL = "https://dadesobertes.fgc.cat/api/v2/catalog/datasets/alertes-gtfs_realtime/files/alerts.pb"
	}
	if p.FGC.TripUpdatesURL == "" {
		p.FGC.TripUpdatesURL = "https://dadesobertes.fgc.cat/api/v2/catalog/datasets/trip-updates-gtfs_realtime/files/trip_updates.pb"
	}

	for _, pc := range []*ProviderConfig{&p.TMB, &p.Tram, &p.Bicing} {
		if pc.Timeout == 0 {
			pc.Timeout = 10 * time.Second
		}
		if pc.RateLimit == 0 {
			pc.RateLimit = 5
		}
		if pc.Burst == 0 {
			pc.Burst = 10
		}
	}
	for _, gc := range []*GTFSConfig{&p.Rodalies, &p.FGC} {
		if gc.Timeout == 0 {
			gc.Timeout = 60 * time.Second
		}
		if gc.RateLimit == 0 {
			gc.RateLimit = 2
		}
		if gc.Burst == 0 {
			gc.Burst = 4
		}
		if gc.StaticReloadTTL == 0 {
			gc.StaticReloadTTL = 24 * time.Hour
		}
	}
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Mode возвращает политику режима; неизвестный режим получает defaults metro.
func (c *Config) Mode(name string) ModeConfig {
	if m, ok := c.Modes[name]; ok {
		return m
	}
	return defaultModes["metro"]
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
