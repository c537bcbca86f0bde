package config

import "time"

// AppConfig глобальная конфигурация приложения
var AppConfig *Config

// Config основной конфиг
type Config struct {
	Environment string
	HTTP        HTTPConfig
	Bot         BotConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Studio      StudioConfig
}

type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

type BotConfig struct {
	Token    string
	Debug    bool
	AdminIDs []int64 // chat ids allowed to use the staff bot
}

// Enabled - bot is optional, runs only with a token
func (c BotConfig) Enabled() bool {
	return c.Token != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type NATSConfig struct {
	URL string
}

type StudioConfig struct {
	Timezone string
	Location *time.Location
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
