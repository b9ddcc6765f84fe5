package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/generative-ai-go/genai"
)

// Bot — Telegram-бот владельца: статус клиентов, платежи, поиск
// и ответы на произвольные вопросы через Gemini.
type Bot struct {
	api *tgbotapi.BotAPI
}

// New создает бота по токену TELEGRAM_BOT_TOKEN.
// Возвращает nil без ошибки, если токен не задан: бот опционален.
func New() (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		slog.Warn("TELEGRAM_BOT_TOKEN не задан, Telegram-бот отключен")
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Telegram API: %w", err)
	}

	slog.Info("Telegram-бот авторизован", "username", api.Self.UserName)
	return &Bot{api: api}, nil
}

// Run обрабатывает входящие сообщения до отмены контекста.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(update.Message)
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	var reply string
	switch {
	case msg.IsCommand():
		reply = b.handleCommand(msg)
	default:
		reply = b.askGemini(text)
	}

	b.Send(msg.Chat.ID, reply)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) string {
	switch msg.Command() {
	case "start":
		return "Здравствуйте! Я бот учета лизинга автомобилей.\n" +
			"Команды: /customers — клиенты, /payments — платежи за сегодня,\n" +
			"/overdue — просрочки, /search <имя> — поиск клиента, /help — справка.\n" +
			"Любой другой вопрос я передам ИИ-ассистенту."
	case "help":
		return "Доступные команды:\n" +
			"/customers — сводка по клиентам\n" +
			"/payments — платежи со сроком сегодня\n" +
			"/overdue — просроченные платежи\n" +
			"/search <имя или телефон> — поиск клиента\n" +
			"/about — о системе"
	case "about":
		return "Система учета лизинга автомобилей: клиенты, графики взносов, " +
			"платежи и напоминания. Данные совпадают с веб-интерфейсом."
	case "customers":
		return b.customersSummary()
	case "payments":
		return b.paymentsDueToday()
	case "overdue":
		return b.overduePayments()
	case "search":
		query := strings.TrimSpace(msg.CommandArguments())
		if query == "" {
			return "Укажите имя или телефон: /search Иван"
		}
		return b.searchCustomers(query)
	default:
		return "Неизвестная команда. Наберите /help."
	}
}

func (b *Bot) customersSummary() string {
	var total, active, completed, overdue int64
	config.DB.Model(&models.Customer{}).Count(&total)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusActive).Count(&active)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusCompleted).Count(&completed)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusOverdue).Count(&overdue)

	return fmt.Sprintf("Клиенты: %d всего\nАктивных: %d\nЗавершенных: %d\nС просрочкой: %d",
		total, active, completed, overdue)
}

func (b *Bot) paymentsDueToday() string {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var payments []models.Payment
	if err := config.DB.Preload("Customer").
		Where("status <> ? AND due_date >= ? AND due_date < ?", models.PaymentStatusPaid, dayStart, dayEnd).
		Order("due_date ASC").Find(&payments).Error; err != nil {
		slog.Error("Бот: не удалось получить платежи за сегодня", "error", err)
		return "Не удалось получить платежи."
	}
	if len(payments) == 0 {
		return "На сегодня платежей нет."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Платежи на сегодня (%d):\n", len(payments)))
	for _, p := range payments {
		sb.WriteString(fmt.Sprintf("• %s — %.2f ₼\n", p.Customer.FullName, p.Amount))
	}
	return sb.String()
}

func (b *Bot) overduePayments() string {
	var payments []models.Payment
	if err := config.DB.Preload("Customer").
		Where("status = ? OR (status = ? AND due_date < ?)",
			models.PaymentStatusOverdue, models.PaymentStatusPending, time.Now()).
		Order("due_date ASC").Find(&payments).Error; err != nil {
		slog.Error("Бот: не удалось получить просрочки", "error", err)
		return "Не удалось получить просроченные платежи."
	}
	if len(payments) == 0 {
		return "Просроченных платежей нет."
	}

	var sb strings.Builder
	var total float64
	sb.WriteString(fmt.Sprintf("Просроченные платежи (%d):\n", len(payments)))
	for _, p := range payments {
		total += p.Amount
		sb.WriteString(fmt.Sprintf("• %s — %.2f ₼, срок %s\n",
			p.Customer.FullName, p.Amount, p.DueDate.Format("02.01.2006")))
	}
	sb.WriteString(fmt.Sprintf("Итого: %.2f ₼", total))
	return sb.String()
}

func (b *Bot) searchCustomers(query string) string {
	var customers []models.Customer
	pattern := "%" + query + "%"
	if err := config.DB.
		Where("full_name LIKE ? OR phone_number LIKE ?", pattern, pattern).
		Limit(10).Find(&customers).Error; err != nil {
		slog.Error("Бот: ошибка поиска клиентов", "error", err, "query", query)
		return "Ошибка поиска."
	}
	if len(customers) == 0 {
		return "Никого не нашел по запросу: " + query
	}

	var sb strings.Builder
	for _, cust := range customers {
		sb.WriteString(fmt.Sprintf("%s (%s)\n%s %s, договор %.2f ₼, оплачено %.2f ₼, статус: %s\n\n",
			cust.FullName, cust.PhoneNumber,
			cust.CarBrand, cust.CarModel,
			cust.LeasingAmount, cust.TotalPaid, cust.Status))
	}
	return strings.TrimSpace(sb.String())
}

// dataSnapshot собирает текущее состояние бизнеса для контекста ассистента:
// счетчики клиентов и финансовые итоги по всем договорам.
func (b *Bot) dataSnapshot() string {
	var total, active, completed, overdue int64
	config.DB.Model(&models.Customer{}).Count(&total)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusActive).Count(&active)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusCompleted).Count(&completed)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusOverdue).Count(&overdue)

	type sums struct {
		ContractTotal float64
		TotalPaid     float64
		PurchaseCost  float64
	}
	var s sums
	config.DB.Model(&models.Customer{}).
		Select(`COALESCE(SUM(monthly_installment * lease_duration),0) AS contract_total,
			COALESCE(SUM(total_paid),0) AS total_paid,
			COALESCE(SUM(car_purchase_cost),0) AS purchase_cost`).
		Scan(&s)

	var overduePayments int64
	var overdueAmount float64
	config.DB.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusOverdue).Count(&overduePayments)
	config.DB.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount),0)").
		Where("status = ?", models.PaymentStatusOverdue).
		Scan(&overdueAmount)

	return fmt.Sprintf(
		"Клиентов всего: %d (активных %d, завершенных %d, с просрочкой %d).\n"+
			"Сумма всех договоров: %.2f ₼, собрано: %.2f ₼, остаток: %.2f ₼.\n"+
			"Вложено в автомобили: %.2f ₼.\n"+
			"Просроченных взносов: %d на сумму %.2f ₼.",
		total, active, completed, overdue,
		s.ContractTotal, s.TotalPaid, s.ContractTotal-s.TotalPaid,
		s.PurchaseCost,
		overduePayments, overdueAmount)
}

// askGemini отвечает на произвольный вопрос владельца через Gemini,
// подставляя в запрос срез текущих данных системы.
func (b *Bot) askGemini(question string) string {
	if config.GeminiClient == nil {
		return "ИИ-ассистент недоступен. Наберите /help для списка команд."
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prompt := "Ты ассистент владельца компании по лизингу автомобилей. " +
		"Отвечай кратко и по делу на русском языке, опираясь на данные системы ниже. " +
		"Если в данных нет ответа, так и скажи.\n\n" +
		"Данные системы на сегодня:\n" + b.dataSnapshot() +
		"\n\nВопрос: " + question

	resp, err := config.GeminiClient.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.Error("Gemini AI response error", "error", err)
		return "Не удалось получить ответ от ассистента. Попробуйте позже."
	}

	var answer string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
			answer = string(textPart)
		}
	}
	if answer == "" {
		answer = "К сожалению, я не смог обработать ваш запрос. Попробуйте переформулировать."
	}
	return answer
}

// Send отправляет сообщение в чат. Используется и напоминаниями.
func (b *Bot) Send(chatID int64, text string) {
	if b == nil || text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("Не удалось отправить сообщение в Telegram", "error", err, "chat_id", chatID)
	}
}
