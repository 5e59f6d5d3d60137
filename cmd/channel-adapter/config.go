package main

type Config struct {
	RedisURL       string `env:"REDIS_URL,default=redis://localhost:6379"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	Port           int    `env:"PORT,default=8081"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
}
