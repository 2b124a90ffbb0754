package config

import "os"

// Config параметры процесса, читаются из окружения
type Config struct {
	Port     string
	Env      string
	RedisURL string // пусто — закреплённые товары хранятся в памяти
}

func Load() Config {
	return Config{
		Port:     getEnv("PORT", "9091"),
		Env:      getEnv("ENV", "development"),
		RedisURL: os.Getenv("REDIS_URL"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
