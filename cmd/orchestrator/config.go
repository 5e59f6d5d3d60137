package main

import "time"

type Config struct {
	RedisURL          string        `env:"REDIS_URL,default=redis://localhost:6379"`
	NegotiatorURL     string        `env:"NEGOTIATOR_URL,default=http://localhost:8083"`
	NegotiatorTimeout time.Duration `env:"NEGOTIATOR_TIMEOUT,default=60s"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	JWTIssuer         string        `env:"JWT_ISSUER,default=parley"`
	SessionTTL        time.Duration `env:"SESSION_TTL,default=24h"`
	Port              int           `env:"PORT,default=8082"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
}
