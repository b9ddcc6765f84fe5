package reminder

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/models"
)

// Sender отправляет сообщение владельцу. Реализуется Telegram-ботом.
type Sender interface {
	Send(chatID int64, text string)
}

// Service формирует и отправляет ежедневные напоминания о платежах.
type Service struct {
	sender Sender
	chatID int64
}

// NewService читает TELEGRAM_CHAT_ID. Возвращает nil, если напоминания
// не настроены (нет бота или чата).
func NewService(sender Sender) *Service {
	if sender == nil {
		return nil
	}
	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	if chatIDStr == "" {
		slog.Warn("TELEGRAM_CHAT_ID не задан, напоминания отключены")
		return nil
	}
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		slog.Error("Некорректный TELEGRAM_CHAT_ID", "value", chatIDStr)
		return nil
	}
	return &Service{sender: sender, chatID: chatID}
}

// SendDailyReminders отправляет владельцу сводку: платежи на сегодня,
// ближайшие три дня и просрочки.
func (s *Service) SendDailyReminders() {
	if s == nil {
		return
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	sections := []string{
		s.dueSection("Платежи на сегодня", dayStart, dayStart.AddDate(0, 0, 1)),
		s.dueSection("Платежи в ближайшие 3 дня", dayStart.AddDate(0, 0, 1), dayStart.AddDate(0, 0, 4)),
		s.overdueSection(now),
	}

	var nonEmpty []string
	for _, sec := range sections {
		if sec != "" {
			nonEmpty = append(nonEmpty, sec)
		}
	}
	if len(nonEmpty) == 0 {
		slog.Info("Напоминания: платежей нет, сообщение не отправлено")
		return
	}

	s.sender.Send(s.chatID, "📋 Ежедневная сводка\n\n"+strings.Join(nonEmpty, "\n\n"))
}

func (s *Service) dueSection(title string, from, to time.Time) string {
	var payments []models.Payment
	if err := config.DB.Preload("Customer").
		Where("status <> ? AND due_date >= ? AND due_date < ?", models.PaymentStatusPaid, from, to).
		Order("due_date ASC").Find(&payments).Error; err != nil {
		slog.Error("Напоминания: не удалось получить платежи", "error", err)
		return ""
	}
	if len(payments) == 0 {
		return ""
	}

	var sb strings.Builder
	var total float64
	sb.WriteString(fmt.Sprintf("%s (%d):\n", title, len(payments)))
	for _, p := range payments {
		total += p.Amount
		sb.WriteString(fmt.Sprintf("• %s — %.2f ₼ (%s, срок %s)\n",
			p.Customer.FullName, p.Amount, p.Customer.PhoneNumber, p.DueDate.Format("02.01.2006")))
	}
	sb.WriteString(fmt.Sprintf("Итого: %.2f ₼", total))
	return sb.String()
}

func (s *Service) overdueSection(asOf time.Time) string {
	var payments []models.Payment
	if err := config.DB.Preload("Customer").
		Where("status = ? OR (status = ? AND due_date < ?)",
			models.PaymentStatusOverdue, models.PaymentStatusPending, asOf).
		Order("due_date ASC").Find(&payments).Error; err != nil {
		slog.Error("Напоминания: не удалось получить просрочки", "error", err)
		return ""
	}
	if len(payments) == 0 {
		return ""
	}

	var sb strings.Builder
	var total float64
	sb.WriteString(fmt.Sprintf("⚠️ Просроченные платежи (%d):\n", len(payments)))
	for _, p := range payments {
		total += p.Amount
		days := int(asOf.Sub(p.DueDate).Hours() / 24)
		sb.WriteString(fmt.Sprintf("• %s — %.2f ₼, просрочка %d дн.\n",
			p.Customer.FullName, p.Amount, days))
	}
	sb.WriteString(fmt.Sprintf("Итого: %.2f ₼", total))
	return sb.String()
}
