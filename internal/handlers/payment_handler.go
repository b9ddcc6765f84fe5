package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/internal/leasing"
	"github.com/piyushkhatri968/Waqarr-project/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentListItem — строка списка платежей с данными клиента для фронтенда.
type PaymentListItem struct {
	models.Payment
	CustomerFullName string `json:"customerFullName"`
	CustomerPhone    string `json:"customerPhone"`
}

// ListPaymentsHandler возвращает платежи с фильтрами по статусу, периоду и клиенту.
func ListPaymentsHandler(c *gin.Context) {
	var payments []PaymentListItem

	query := config.DB.Table("payments p").
		Select(`p.*, c.full_name AS customer_full_name, c.phone_number AS customer_phone`).
		Joins("LEFT JOIN customers c ON p.customer_id = c.id").
		Where("p.deleted_at IS NULL").
		Order("p.due_date ASC")

	if status := c.Query("status"); status != "" {
		query = query.Where("p.status = ?", status)
	}
	if customerID := c.Query("customerId"); customerID != "" {
		query = query.Where("p.customer_id = ?", customerID)
	}
	if startDate := c.Query("startDate"); startDate != "" {
		query = query.Where("p.due_date >= ?", startDate)
	}
	if endDate := c.Query("endDate"); endDate != "" {
		query = query.Where("p.due_date <= ?", endDate)
	}

	if err := query.Scan(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список платежей"})
		return
	}
	if payments == nil {
		payments = make([]PaymentListItem, 0)
	}

	c.JSON(http.StatusOK, payments)
}

// ListCustomerPaymentsHandler возвращает график платежей одного клиента.
func ListCustomerPaymentsHandler(c *gin.Context) {
	if err := config.DB.First(&models.Customer{}, c.Param("customerId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	var payments []models.Payment
	query := config.DB.Where("customer_id = ?", c.Param("customerId")).Order("due_date ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи клиента"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// MarkPaymentPaidHandler отмечает взнос оплаченным. Принимает multipart-форму
// с необязательным файлом подтверждения, датой оплаты и примечанием.
func MarkPaymentPaidHandler(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	opts := leasing.MarkPaidOptions{Notes: c.PostForm("notes")}

	if dateStr := c.PostForm("paymentDate"); dateStr != "" {
		paidAt, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты оплаты. Ожидается YYYY-MM-DD."})
			return
		}
		opts.PaymentDate = &paidAt
	}

	var proofPath string
	if file, err := c.FormFile("proof"); err == nil {
		proofPath, err = saveUploadedFile(c, file, "payments")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.ProofPath = &proofPath
	}

	payment, err := Engine.MarkPaid(paymentID, opts)
	if err != nil {
		removeUploadedFile(proofPath)
		respondLeasingError(c, err)
		return
	}

	InvalidateDashboardCache()
	c.JSON(http.StatusOK, gin.H{
		"message": "Платеж отмечен как оплаченный",
		"payment": payment,
	})
}

// RevertPaymentHandler переключает статус взноса между paid и pending.
func RevertPaymentHandler(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	// Тело не обязательно.
	_ = c.ShouldBindJSON(&body)

	newStatus, err := Engine.Revert(paymentID, body.Notes)
	if err != nil {
		respondLeasingError(c, err)
		return
	}

	InvalidateDashboardCache()

	msg := "Платеж возвращен в статус pending"
	if newStatus == models.PaymentStatusPaid {
		msg = "Платеж отмечен как оплаченный"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": msg,
		"status":  newStatus,
	})
}

// ListOverduePaymentsHandler возвращает просроченные и еще не помеченные
// pending-взносы с истекшей датой.
func ListOverduePaymentsHandler(c *gin.Context) {
	var payments []PaymentListItem

	err := config.DB.Table("payments p").
		Select(`p.*, c.full_name AS customer_full_name, c.phone_number AS customer_phone`).
		Joins("LEFT JOIN customers c ON p.customer_id = c.id").
		Where("p.deleted_at IS NULL").
		Where("p.status = ? OR (p.status = ? AND p.due_date < ?)",
			models.PaymentStatusOverdue, models.PaymentStatusPending, time.Now()).
		Order("p.due_date ASC").
		Scan(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить просроченные платежи"})
		return
	}
	if payments == nil {
		payments = make([]PaymentListItem, 0)
	}

	c.JSON(http.StatusOK, payments)
}

// SweepOverdueHandler запускает пометку просроченных взносов вручную.
// Тот же код ежедневно вызывает планировщик.
func SweepOverdueHandler(c *gin.Context) {
	flagged, err := Engine.SweepOverdue(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить просроченные платежи"})
		return
	}
	if flagged > 0 {
		InvalidateDashboardCache()
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Просроченные платежи обновлены",
		"flagged": flagged,
	})
}

// CloseoutHandler досрочно закрывает договор клиента одним платежом.
func CloseoutHandler(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}

	opts := leasing.CloseoutOptions{}

	if dateStr := c.PostForm("closeoutDate"); dateStr != "" {
		closedAt, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты погашения. Ожидается YYYY-MM-DD."})
			return
		}
		opts.CloseoutDate = &closedAt
	}

	var proofPath string
	if file, err := c.FormFile("proof"); err == nil {
		proofPath, err = saveUploadedFile(c, file, "payments")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.ProofPath = &proofPath
	}

	amount, err := Engine.Closeout(customerID, opts)
	if err != nil {
		removeUploadedFile(proofPath)
		respondLeasingError(c, err)
		return
	}

	InvalidateDashboardCache()
	c.JSON(http.StatusOK, gin.H{
		"message": "Договор досрочно закрыт",
		"amount":  amount,
	})
}

// PaymentSummaryHandler — сводка по платежам клиента для карточки и бота.
func PaymentSummaryHandler(c *gin.Context) {
	var customer models.Customer
	if err := config.DB.First(&customer, c.Param("customerId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	var payments []models.Payment
	if err := config.DB.Where("customer_id = ?", customer.ID).
		Order("due_date ASC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи клиента"})
		return
	}

	var paid, pending, overdue int
	var totalAmount, paidAmount float64
	var nextPayment *models.Payment
	for i := range payments {
		p := &payments[i]
		totalAmount += p.Amount
		switch p.Status {
		case models.PaymentStatusPaid:
			paid++
			paidAmount += p.Amount
		case models.PaymentStatusPending:
			pending++
			if nextPayment == nil {
				nextPayment = p
			}
		case models.PaymentStatusOverdue:
			overdue++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": gin.H{
			"id":            customer.ID,
			"fullName":      customer.FullName,
			"leasingAmount": customer.LeasingAmount,
			"totalPaid":     customer.TotalPaid,
			"status":        customer.Status,
		},
		"payments": gin.H{
			"total":   len(payments),
			"paid":    paid,
			"pending": pending,
			"overdue": overdue,
		},
		"financial": gin.H{
			"totalAmount":     totalAmount,
			"paidAmount":      paidAmount,
			"remainingAmount": totalAmount - paidAmount,
			"profit":          customer.Profit(),
		},
		"nextPayment": nextPayment,
	})
}

// parseIDParam читает числовой параметр пути.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID"})
		return 0, false
	}
	return uint(id), true
}

// respondLeasingError переводит типизированные ошибки движка в HTTP-коды.
func respondLeasingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, leasing.ErrPaymentNotFound), errors.Is(err, leasing.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, leasing.ErrAlreadyPaid), errors.Is(err, leasing.ErrNothingToClose),
		errors.Is(err, leasing.ErrStateChanged):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case leasing.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при выполнении операции"})
	}
}
