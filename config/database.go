package config

import (
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB открывает соединение с Postgres и сохраняет его в config.DB.
// Соединение живет весь срок работы процесса и закрывается через CloseDB при остановке.
func ConnectDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		slog.Error("Переменная окружения DB_URL не установлена, запуск невозможен.")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		slog.Error("Ошибка подключения к БД", "error", err)
		os.Exit(1)
	}

	DB = db
	slog.Info("Успешное подключение к базе данных!")
}

// CloseDB закрывает пул соединений при завершении работы процесса.
func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		slog.Warn("Не удалось получить *sql.DB для закрытия", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Warn("Ошибка при закрытии соединения с БД", "error", err)
	}
}
