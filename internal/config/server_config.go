package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	BaseURL                        string
	EnableCORSMiddleware           bool
	EnableLoggerMiddleware         bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableTrailingSlashMiddleware  bool
	EnableRateLimitMiddleware      bool
	EnablePrometheusMiddleware     bool
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogRequestHeader   bool
	LogRequestQuery    bool
	LogResponseBody    bool
	LogResponseHeader  bool
	PrettyPrintConsole bool
}

type ManagementServer struct {
	ReadinessTimeout time.Duration
	LivenessTimeout  time.Duration
}

type I18n struct {
	DefaultLanguage language.Tag
}

// Relay configures the chain side of the relay.
type Relay struct {
	// RPCURLs are tried in order, later entries are failover endpoints.
	RPCURLs            []string
	ChainID            int64
	RPCTimeout         time.Duration
	ProbeInterval      time.Duration
	DefaultGasLimit    uint64
	DefaultDecimals    uint8
	ReplayTTL          time.Duration
	RateLimitPerMinute int
}

// Redis is optional, without Addr replay protection is kept in memory and
// rate limiting is disabled.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Metrics struct {
	IncludeRuntime bool
}

type Server struct {
	Echo       EchoServer
	Logger     LoggerServer
	Management ManagementServer
	I18n       I18n
	Relay      Relay
	Redis      Redis
	Metrics    Metrics
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Server{
		Echo: EchoServer{
			Debug:                          v.GetBool("SERVER_ECHO_DEBUG"),
			ListenAddress:                  v.GetString("SERVER_ECHO_LISTEN_ADDRESS"),
			HideInternalServerErrorDetails: v.GetBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS"),
			BaseURL:                        v.GetString("SERVER_ECHO_BASE_URL"),
			EnableCORSMiddleware:           v.GetBool("SERVER_ECHO_ENABLE_CORS_MIDDLEWARE"),
			EnableLoggerMiddleware:         v.GetBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE"),
			EnableRecoverMiddleware:        v.GetBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE"),
			EnableRequestIDMiddleware:      v.GetBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE"),
			EnableTrailingSlashMiddleware:  v.GetBool("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE"),
			EnableRateLimitMiddleware:      v.GetBool("SERVER_ECHO_ENABLE_RATE_LIMIT_MIDDLEWARE"),
			EnablePrometheusMiddleware:     v.GetBool("SERVER_ECHO_ENABLE_PROMETHEUS_MIDDLEWARE"),
		},
		Logger: LoggerServer{
			Level:              getLevel(v, "SERVER_LOGGER_LEVEL"),
			RequestLevel:       getLevel(v, "SERVER_LOGGER_REQUEST_LEVEL"),
			LogRequestBody:     v.GetBool("SERVER_LOGGER_LOG_REQUEST_BODY"),
			LogRequestHeader:   v.GetBool("SERVER_LOGGER_LOG_REQUEST_HEADER"),
			LogRequestQuery:    v.GetBool("SERVER_LOGGER_LOG_REQUEST_QUERY"),
			LogResponseBody:    v.GetBool("SERVER_LOGGER_LOG_RESPONSE_BODY"),
			LogResponseHeader:  v.GetBool("SERVER_LOGGER_LOG_RESPONSE_HEADER"),
			PrettyPrintConsole: v.GetBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE"),
		},
		Management: ManagementServer{
			ReadinessTimeout: v.GetDuration("SERVER_MANAGEMENT_READINESS_TIMEOUT"),
			LivenessTimeout:  v.GetDuration("SERVER_MANAGEMENT_LIVENESS_TIMEOUT"),
		},
		I18n: I18n{
			DefaultLanguage: getLanguage(v, "SERVER_I18N_DEFAULT_LANGUAGE"),
		},
		Relay: Relay{
			RPCURLs:            splitList(v.GetString("RELAY_RPC_URLS")),
			ChainID:            v.GetInt64("RELAY_CHAIN_ID"),
			RPCTimeout:         v.GetDuration("RELAY_RPC_TIMEOUT"),
			ProbeInterval:      v.GetDuration("RELAY_PROBE_INTERVAL"),
			DefaultGasLimit:    v.GetUint64("RELAY_DEFAULT_GAS_LIMIT"),
			DefaultDecimals:    uint8(v.GetUint("RELAY_DEFAULT_DECIMALS")), //nolint:gosec // bounded by the token standard
			ReplayTTL:          v.GetDuration("RELAY_REPLAY_TTL"),
			RateLimitPerMinute: v.GetInt("RELAY_RATE_LIMIT_PER_MINUTE"),
		},
		Redis: Redis{
			Addr:     v.GetString("RELAY_REDIS_ADDR"),
			Password: v.GetString("RELAY_REDIS_PASSWORD"),
			DB:       v.GetInt("RELAY_REDIS_DB"),
		},
		Metrics: Metrics{
			IncludeRuntime: v.GetBool("SERVER_METRICS_INCLUDE_RUNTIME"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ECHO_DEBUG", false)
	v.SetDefault("SERVER_ECHO_LISTEN_ADDRESS", ":8080")
	v.SetDefault("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true)
	v.SetDefault("SERVER_ECHO_BASE_URL", "http://localhost:8080")
	v.SetDefault("SERVER_ECHO_ENABLE_CORS_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_RATE_LIMIT_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_PROMETHEUS_MIDDLEWARE", true)

	v.SetDefault("SERVER_LOGGER_LEVEL", zerolog.DebugLevel.String())
	v.SetDefault("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())
	v.SetDefault("SERVER_LOGGER_LOG_REQUEST_BODY", false)
	v.SetDefault("SERVER_LOGGER_LOG_REQUEST_HEADER", false)
	v.SetDefault("SERVER_LOGGER_LOG_REQUEST_QUERY", false)
	v.SetDefault("SERVER_LOGGER_LOG_RESPONSE_BODY", false)
	v.SetDefault("SERVER_LOGGER_LOG_RESPONSE_HEADER", false)
	v.SetDefault("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false)

	v.SetDefault("SERVER_MANAGEMENT_READINESS_TIMEOUT", 4*time.Second)
	v.SetDefault("SERVER_MANAGEMENT_LIVENESS_TIMEOUT", 9*time.Second)

	v.SetDefault("SERVER_I18N_DEFAULT_LANGUAGE", "en")

	v.SetDefault("RELAY_RPC_URLS", "https://rpc.merlinchain.io")
	v.SetDefault("RELAY_CHAIN_ID", 4200)
	v.SetDefault("RELAY_RPC_TIMEOUT", 5*time.Second)
	v.SetDefault("RELAY_PROBE_INTERVAL", 30*time.Second)
	v.SetDefault("RELAY_DEFAULT_GAS_LIMIT", 90000)
	v.SetDefault("RELAY_DEFAULT_DECIMALS", 18)
	v.SetDefault("RELAY_REPLAY_TTL", 24*time.Hour)
	v.SetDefault("RELAY_RATE_LIMIT_PER_MINUTE", 60)

	v.SetDefault("RELAY_REDIS_ADDR", "")
	v.SetDefault("RELAY_REDIS_PASSWORD", "")
	v.SetDefault("RELAY_REDIS_DB", 0)

	v.SetDefault("SERVER_METRICS_INCLUDE_RUNTIME", true)
}

func getLevel(v *viper.Viper, key string) zerolog.Level {
	level, err := zerolog.ParseLevel(v.GetString(key))
	if err != nil {
		return zerolog.DebugLevel
	}

	return level
}

func getLanguage(v *viper.Viper, key string) language.Tag {
	tag, err := language.Parse(v.GetString(key))
	if err != nil {
		return language.English
	}

	return tag
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
