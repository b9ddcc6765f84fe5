package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/models"
	"github.com/divan/num2words"
	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const dashboardCacheKey = "reports:dashboard"

// DashboardStatsHandler возвращает сводку для главной страницы.
// Результат кэшируется в Redis на пять минут.
func DashboardStatsHandler(c *gin.Context) {
	if config.RDB != nil {
		cached, err := config.RDB.Get(config.Ctx, dashboardCacheKey).Result()
		if err == nil {
			var stats map[string]any
			if json.Unmarshal([]byte(cached), &stats) == nil {
				slog.Info("Dashboard stats loaded from CACHE")
				c.JSON(http.StatusOK, stats)
				return
			}
		}
	}

	var totalCustomers, activeCustomers, completedCustomers, overdueCustomers int64
	config.DB.Model(&models.Customer{}).Count(&totalCustomers)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusActive).Count(&activeCustomers)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusCompleted).Count(&completedCustomers)
	config.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusOverdue).Count(&overdueCustomers)

	type sums struct {
		LeasingAmount float64
		TotalPaid     float64
		PurchaseCost  float64
		ContractTotal float64
	}
	var s sums
	config.DB.Model(&models.Customer{}).
		Select(`COALESCE(SUM(leasing_amount),0) AS leasing_amount,
			COALESCE(SUM(total_paid),0) AS total_paid,
			COALESCE(SUM(car_purchase_cost),0) AS purchase_cost,
			COALESCE(SUM(monthly_installment * lease_duration),0) AS contract_total`).
		Scan(&s)

	var overduePayments int64
	config.DB.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusOverdue).Count(&overduePayments)

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var dueThisMonth int64
	var expectedThisMonth float64
	config.DB.Model(&models.Payment{}).
		Where("status <> ? AND due_date >= ? AND due_date < ?", models.PaymentStatusPaid, monthStart, monthEnd).
		Count(&dueThisMonth)
	config.DB.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount),0)").
		Where("status <> ? AND due_date >= ? AND due_date < ?", models.PaymentStatusPaid, monthStart, monthEnd).
		Scan(&expectedThisMonth)

	var collectedThisMonth float64
	config.DB.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount),0)").
		Where("status = ? AND payment_date >= ? AND payment_date < ?", models.PaymentStatusPaid, monthStart, monthEnd).
		Scan(&collectedThisMonth)

	stats := gin.H{
		"customers": gin.H{
			"total":     totalCustomers,
			"active":    activeCustomers,
			"completed": completedCustomers,
			"overdue":   overdueCustomers,
		},
		"financial": gin.H{
			"totalLeasingAmount": s.LeasingAmount,
			"totalPaid":          s.TotalPaid,
			"totalRemaining":     s.ContractTotal - s.TotalPaid,
			"totalPurchaseCost":  s.PurchaseCost,
			"expectedProfit":     s.ContractTotal - s.LeasingAmount,
		},
		"thisMonth": gin.H{
			"dueCount":  dueThisMonth,
			"expected":  expectedThisMonth,
			"collected": collectedThisMonth,
		},
		"overduePayments": overduePayments,
	}

	if config.RDB != nil {
		if jsonData, err := json.Marshal(stats); err == nil {
			if err := config.RDB.Set(config.Ctx, dashboardCacheKey, jsonData, 5*time.Minute).Err(); err != nil {
				slog.Error("Failed to SET dashboard stats to cache", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, stats)
}

// InvalidateDashboardCache сбрасывает кэш сводки после мутаций.
func InvalidateDashboardCache() {
	if config.RDB != nil {
		if err := config.RDB.Del(config.Ctx, dashboardCacheKey).Err(); err != nil {
			slog.Error("Failed to invalidate dashboard cache", "error", err)
		}
	}
}

// FinancialSummaryHandler — общая финансовая сводка: вложено, собрано,
// ожидается, прибыль по всем договорам.
func FinancialSummaryHandler(c *gin.Context) {
	type summary struct {
		TotalCustomers int64   `json:"totalCustomers"`
		TotalInvested  float64 `json:"totalInvested"`
		TotalContracts float64 `json:"totalContracts"`
		TotalCollected float64 `json:"totalCollected"`
	}
	var s summary
	err := config.DB.Model(&models.Customer{}).
		Select(`COUNT(*) AS total_customers,
			COALESCE(SUM(car_purchase_cost),0) AS total_invested,
			COALESCE(SUM(monthly_installment * lease_duration),0) AS total_contracts,
			COALESCE(SUM(total_paid),0) AS total_collected`).
		Scan(&s).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось построить финансовую сводку"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalCustomers":   s.TotalCustomers,
		"totalInvested":    s.TotalInvested,
		"totalContracts":   s.TotalContracts,
		"totalCollected":   s.TotalCollected,
		"totalOutstanding": s.TotalContracts - s.TotalCollected,
		"totalProfit":      s.TotalCollected - s.TotalInvested,
	})
}

// MonthlyReportHandler группирует платежи по месяцам за выбранный год.
func MonthlyReportHandler(c *gin.Context) {
	year := time.Now().Year()
	if y := c.Query("year"); y != "" {
		if _, err := fmt.Sscanf(y, "%d", &year); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный год"})
			return
		}
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	var payments []models.Payment
	if err := config.DB.
		Where("due_date >= ? AND due_date < ?", yearStart, yearEnd).
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи за год"})
		return
	}

	type monthRow struct {
		Month     string  `json:"month"`
		Expected  float64 `json:"expected"`
		Collected float64 `json:"collected"`
		Paid      int     `json:"paid"`
		Pending   int     `json:"pending"`
		Overdue   int     `json:"overdue"`
	}

	// Группировка в Go, чтобы не зависеть от диалекта SQL по датам.
	rows := make([]monthRow, 12)
	for i := range rows {
		rows[i].Month = fmt.Sprintf("%d-%02d", year, i+1)
	}
	for _, p := range payments {
		i := int(p.DueDate.Month()) - 1
		rows[i].Expected += p.Amount
		switch p.Status {
		case models.PaymentStatusPaid:
			rows[i].Collected += p.Amount
			rows[i].Paid++
		case models.PaymentStatusPending:
			rows[i].Pending++
		case models.PaymentStatusOverdue:
			rows[i].Overdue++
		}
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "months": rows})
}

// CarBrandReportHandler — сводка по маркам автомобилей.
func CarBrandReportHandler(c *gin.Context) {
	type brandRow struct {
		CarBrand      string  `json:"carBrand"`
		Customers     int64   `json:"customers"`
		LeasingAmount float64 `json:"leasingAmount"`
		TotalPaid     float64 `json:"totalPaid"`
		PurchaseCost  float64 `json:"purchaseCost"`
	}

	var rows []brandRow
	err := config.DB.Model(&models.Customer{}).
		Select(`car_brand, COUNT(*) AS customers,
			COALESCE(SUM(leasing_amount),0) AS leasing_amount,
			COALESCE(SUM(total_paid),0) AS total_paid,
			COALESCE(SUM(car_purchase_cost),0) AS purchase_cost`).
		Where("car_brand <> ''").
		Group("car_brand").
		Order("customers DESC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось построить отчет по маркам"})
		return
	}
	if rows == nil {
		rows = make([]brandRow, 0)
	}

	c.JSON(http.StatusOK, rows)
}

// CustomerReportHandler — отчет по клиентам с фильтрами по статусу и периоду договора.
func CustomerReportHandler(c *gin.Context) {
	var customers []models.Customer

	query := config.DB.Model(&models.Customer{}).Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if startDate := c.Query("startDate"); startDate != "" {
		query = query.Where("lease_start_date >= ?", startDate)
	}
	if endDate := c.Query("endDate"); endDate != "" {
		query = query.Where("lease_start_date <= ?", endDate)
	}
	if err := query.Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить клиентов для отчета"})
		return
	}

	type reportRow struct {
		models.Customer
		RemainingBalance float64 `json:"remainingBalance"`
		Profit           float64 `json:"profit"`
	}
	rows := make([]reportRow, 0, len(customers))
	var totalLeasing, totalPaid, totalRemaining float64
	for _, cust := range customers {
		rows = append(rows, reportRow{
			Customer:         cust,
			RemainingBalance: cust.RemainingBalance(),
			Profit:           cust.Profit(),
		})
		totalLeasing += cust.LeasingAmount
		totalPaid += cust.TotalPaid
		totalRemaining += cust.RemainingBalance()
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": rows,
		"totals": gin.H{
			"leasingAmount": totalLeasing,
			"totalPaid":     totalPaid,
			"remaining":     totalRemaining,
		},
	})
}

// ExportPaymentsExcelHandler выгружает платежи в Excel с теми же фильтрами,
// что и список платежей.
func ExportPaymentsExcelHandler(c *gin.Context) {
	var payments []PaymentListItem

	query := config.DB.Table("payments p").
		Select(`p.*, c.full_name AS customer_full_name, c.phone_number AS customer_phone`).
		Joins("LEFT JOIN customers c ON p.customer_id = c.id").
		Where("p.deleted_at IS NULL").
		Order("p.due_date ASC")

	if status := c.Query("status"); status != "" {
		query = query.Where("p.status = ?", status)
	}
	if startDate := c.Query("startDate"); startDate != "" {
		query = query.Where("p.due_date >= ?", startDate)
	}
	if endDate := c.Query("endDate"); endDate != "" {
		query = query.Where("p.due_date <= ?", endDate)
	}

	if err := query.Scan(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data for export"})
		return
	}

	f := excelize.NewFile()
	sheetName := "Платежи"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Клиент", "Телефон", "Сумма", "Срок оплаты", "Статус", "Дата оплаты", "Примечание"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, p := range payments {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), p.CustomerFullName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p.CustomerPhone)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), p.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), p.DueDate.Format("02.01.2006"))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), p.Status)
		if p.PaymentDate != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), p.PaymentDate.Format("02.01.2006"))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), p.Notes)
	}

	fileName := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}

// ExportCustomerPDFHandler формирует PDF-выписку по договору клиента.
func ExportCustomerPDFHandler(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}

	var customer models.Customer
	if err := config.DB.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("payments.due_date ASC")
	}).First(&customer, customerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1251")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Выписка по договору лизинга"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Клиент: %s", customer.FullName)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Телефон: %s", customer.PhoneNumber)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Автомобиль: %s %s %d", customer.CarBrand, customer.CarModel, customer.CarYear)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Сумма договора: %.2f", customer.LeasingAmount)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Оплачено: %.2f (%s)", customer.TotalPaid, amountInWords(customer.TotalPaid))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Остаток: %.2f", customer.RemainingBalance())), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	widths := []float64{12, 38, 32, 30, 38}
	cols := []string{"№", "Срок оплаты", "Сумма", "Статус", "Дата оплаты"}
	for i, col := range cols {
		pdf.CellFormat(widths[i], 8, tr(col), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for i, p := range customer.Payments {
		paidAt := "-"
		if p.PaymentDate != nil {
			paidAt = p.PaymentDate.Format("02.01.2006")
		}
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, p.DueDate.Format("02.01.2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%.2f", p.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(p.Status), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 7, paidAt, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	fileName := fmt.Sprintf("customer_%d_statement.pdf", customer.ID)
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := pdf.Output(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write PDF file"})
	}
}

func amountInWords(amount float64) string {
	whole := int(amount)
	cents := int(math.Round((amount - float64(whole)) * 100))
	return fmt.Sprintf("%s манат %02d гяпик", num2words.Convert(whole), cents)
}
