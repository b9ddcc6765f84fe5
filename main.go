package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/internal/bot"
	"github.com/piyushkhatri968/Waqarr-project/internal/handlers"
	"github.com/piyushkhatri968/Waqarr-project/internal/leasing"
	"github.com/piyushkhatri968/Waqarr-project/internal/reminder"
	"github.com/piyushkhatri968/Waqarr-project/internal/routes"
	"github.com/piyushkhatri968/Waqarr-project/models"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Файл .env не найден, используются переменные окружения")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config.ConnectDB()
	defer config.CloseDB()
	config.ConnectRedis()
	config.InitAuth()
	if err := config.InitGoogleServices(); err != nil {
		slog.Warn("Gemini недоступен, бот будет отвечать только на команды", "error", err)
	}

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Payment{},
		&models.Document{},
	); err != nil {
		slog.Error("Ошибка миграции базы данных", "error", err)
		os.Exit(1)
	}
	seedAdminUser()

	engine := leasing.NewEngine(config.DB)
	handlers.SetEngine(engine)

	tgBot, err := bot.New()
	if err != nil {
		slog.Error("Не удалось запустить Telegram-бота", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if tgBot != nil {
		go tgBot.Run(ctx)
	}

	reminders := reminder.NewService(tgBot)

	c := cron.New()
	// Ежедневно в 9:00 — пометка просрочек и сводка владельцу.
	if _, err := c.AddFunc("0 9 * * *", func() {
		flagged, err := engine.SweepOverdue(time.Now())
		if err != nil {
			slog.Error("Ошибка при обновлении просроченных платежей", "error", err)
			return
		}
		if flagged > 0 {
			slog.Info("Просроченные платежи обновлены", "flagged", flagged)
			handlers.InvalidateDashboardCache()
		}
		reminders.SendDailyReminders()
	}); err != nil {
		slog.Error("Не удалось зарегистрировать ежедневную задачу", "error", err)
	}
	c.Start()
	defer c.Stop()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20
	r.Static("/uploads", uploadDir())

	routes.RegisterAuthRoutes(r)
	routes.RegisterAPIRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		slog.Info("Сервер запущен", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ошибка сервера", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Получен сигнал завершения, останавливаем сервер")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Ошибка при остановке сервера", "error", err)
	}
}

// seedAdminUser создает администратора при первом запуске.
func seedAdminUser() {
	var count int64
	config.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		slog.Warn("ADMIN_PASSWORD не задан, используется пароль по умолчанию")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Не удалось захэшировать пароль администратора", "error", err)
		return
	}

	admin := models.User{
		Username:     "admin",
		PasswordHash: string(hashed),
		FullName:     "Администратор",
	}
	if err := config.DB.Create(&admin).Error; err != nil {
		slog.Error("Не удалось создать администратора", "error", err)
		return
	}
	slog.Info("Создан пользователь admin")
}

func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "./uploads"
}
