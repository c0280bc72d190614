package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/internal/db"
	"github.com/robalobadob/numguess/internal/httpserver"
	"github.com/robalobadob/numguess/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if os.Getenv("NODE_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	sqlDB, err := db.OpenAndMigrate(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer sqlDB.Close()

	cfg := httpserver.Config{
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTTTL:       time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName:   getEnv("COOKIE_NAME", "numguess_token"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Secure:       os.Getenv("NODE_ENV") == "production",
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
	}
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
	}

	srv := httpserver.New(cfg, store.NewMemoryStore(), sqlDB)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting numguess server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
