package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/internal/leasing"
	"github.com/piyushkhatri968/Waqarr-project/models"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRouter поднимает изолированную БД в памяти и роутер без
// auth-middleware: здесь проверяются сами обработчики.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("не удалось открыть тестовую БД: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Customer{}, &models.Payment{}, &models.Document{}); err != nil {
		t.Fatalf("миграция тестовой БД: %v", err)
	}

	config.DB = db
	config.RDB = nil
	SetEngine(leasing.NewEngine(db))

	r := gin.New()
	r.POST("/api/auth/login", LoginHandler)

	r.GET("/api/customers", ListCustomersHandler)
	r.POST("/api/customers", CreateCustomerHandler)
	r.GET("/api/customers/:id", GetCustomerHandler)
	r.PUT("/api/customers/:id", UpdateCustomerHandler)
	r.DELETE("/api/customers/:id", DeleteCustomerHandler)

	r.GET("/api/payments", ListPaymentsHandler)
	r.GET("/api/payments/overdue", ListOverduePaymentsHandler)
	r.POST("/api/payments/update-overdue", SweepOverdueHandler)
	r.GET("/api/payments/customer/:customerId", ListCustomerPaymentsHandler)
	r.GET("/api/payments/customer/:customerId/summary", PaymentSummaryHandler)
	r.POST("/api/payments/customer/:customerId/closeout", CloseoutHandler)
	r.PUT("/api/payments/:id/mark-paid", MarkPaymentPaidHandler)
	r.PUT("/api/payments/:id/revert", RevertPaymentHandler)

	r.POST("/api/documents/customer/:customerId", UploadDocumentHandler)
	r.GET("/api/documents/customer/:customerId", ListCustomerDocumentsHandler)

	r.GET("/api/reports/dashboard", DashboardStatsHandler)
	r.GET("/api/reports/monthly", MonthlyReportHandler)

	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, r *gin.Engine, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, r, method, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, r, method, path, strings.NewReader(body), "application/json")
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("ответ не является JSON: %v\n%s", err, w.Body.String())
	}
	return out
}

// seedLease создает через движок клиента с договором 3 x 500 от 2024-01-15.
func seedLease(t *testing.T, name string) *models.Customer {
	t.Helper()
	customer, err := Engine.CreateLease(leasing.CreateLeaseInput{
		FullName:           name,
		PhoneNumber:        "+994501112233",
		CarBrand:           "Toyota",
		CarModel:           "Camry",
		CarYear:            2020,
		CarPurchaseCost:    10000,
		LeasingAmount:      1500,
		MonthlyInstallment: 500,
		LeaseDuration:      3,
		LeaseStartDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("не удалось создать тестовый договор: %v", err)
	}
	return customer
}

func customerPayments(t *testing.T, customerID uint) []models.Payment {
	t.Helper()
	var payments []models.Payment
	if err := config.DB.Where("customer_id = ?", customerID).Order("due_date ASC").Find(&payments).Error; err != nil {
		t.Fatalf("не удалось получить платежи: %v", err)
	}
	return payments
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("ожидался статус %d, получен %d: %s", want, w.Code, w.Body.String())
	}
}
