package config

import (
	"log/slog"
	"os"
)

// JwtKey — ключ подписи сессионных токенов. Берется из SECRET_KEY.
var JwtKey []byte

func InitAuth() {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		slog.Error("Переменная окружения SECRET_KEY не установлена, запуск невозможен.")
		os.Exit(1)
	}
	JwtKey = []byte(secret)
}
