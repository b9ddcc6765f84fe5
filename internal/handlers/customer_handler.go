package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/internal/leasing"
	"github.com/piyushkhatri968/Waqarr-project/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateCustomerRequest — данные формы нового договора. Файлы (права, паспорт,
// фото) приходят в той же multipart-форме и обрабатываются отдельно.
type CreateCustomerRequest struct {
	FullName           string  `form:"fullName" binding:"required"`
	PhoneNumber        string  `form:"phoneNumber" binding:"required"`
	CarBrand           string  `form:"carBrand" binding:"required"`
	CarModel           string  `form:"carModel" binding:"required"`
	CarYear            int     `form:"carYear" binding:"required"`
	CarPurchaseCost    float64 `form:"carPurchaseCost"`
	LeasingAmount      float64 `form:"leasingAmount"`
	MonthlyInstallment float64 `form:"monthlyInstallment"`
	LeaseDuration      int     `form:"leaseDuration"`
	LeaseStartDate     string  `form:"leaseStartDate" binding:"required"`
}

// UpdateCustomerRequest перечисляет единственные поля, которые можно править
// напрямую. Агрегаты (totalPaid, status, lastPaymentDate) сюда не входят —
// ими владеет движок платежей, и попытка прислать их отклоняется как
// неизвестное поле.
type UpdateCustomerRequest struct {
	FullName        *string  `json:"fullName"`
	PhoneNumber     *string  `json:"phoneNumber"`
	CarBrand        *string  `json:"carBrand"`
	CarModel        *string  `json:"carModel"`
	CarYear         *int     `json:"carYear"`
	CarPurchaseCost *float64 `json:"carPurchaseCost"`
}

// ListCustomersHandler возвращает клиентов с поиском по имени, телефону и машине.
func ListCustomersHandler(c *gin.Context) {
	var customers []models.Customer

	query := config.DB.Model(&models.Customer{}).Order("created_at DESC")

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(`LOWER(full_name) LIKE ? OR LOWER(phone_number) LIKE ? OR
			LOWER(car_brand) LIKE ? OR LOWER(car_model) LIKE ?`,
			pattern, pattern, pattern, pattern)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать клиентов"})
		return
	}

	if err := query.Scopes(Paginate(c)).Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список клиентов"})
		return
	}
	if customers == nil {
		customers = make([]models.Customer, 0)
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, customers, totalRows))
}

// GetCustomerHandler возвращает клиента вместе с графиком платежей.
func GetCustomerHandler(c *gin.Context) {
	var customer models.Customer
	err := config.DB.
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payments.due_date ASC") }).
		First(&customer, c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// CreateCustomerHandler создает клиента и график платежей одной операцией
// движка. Загруженные файлы при неудаче создания удаляются.
func CreateCustomerHandler(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные формы: " + err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.LeaseStartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты начала. Ожидается YYYY-MM-DD."})
		return
	}

	input := leasing.CreateLeaseInput{
		FullName:           req.FullName,
		PhoneNumber:        req.PhoneNumber,
		CarBrand:           req.CarBrand,
		CarModel:           req.CarModel,
		CarYear:            req.CarYear,
		CarPurchaseCost:    req.CarPurchaseCost,
		LeasingAmount:      req.LeasingAmount,
		MonthlyInstallment: req.MonthlyInstallment,
		LeaseDuration:      req.LeaseDuration,
		LeaseStartDate:     startDate,
	}

	var savedPaths []string
	cleanup := func() {
		for _, p := range savedPaths {
			removeUploadedFile(p)
		}
	}

	for _, upload := range []struct {
		field string
		dest  **string
	}{
		{"driverId", &input.DriverIdPath},
		{"passport", &input.PassportPhotoPath},
		{"photo", &input.PhotoURL},
	} {
		file, err := c.FormFile(upload.field)
		if err != nil {
			continue // файл не обязателен
		}
		path, err := saveUploadedFile(c, file, "customers")
		if err != nil {
			cleanup()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		savedPaths = append(savedPaths, path)
		*upload.dest = &path
	}

	customer, err := Engine.CreateLease(input)
	if err != nil {
		cleanup()
		if leasing.IsInvalidInput(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать клиента"})
		return
	}

	InvalidateDashboardCache()
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Клиент успешно создан",
		"customer": customer,
	})
}

// UpdateCustomerHandler правит карточку клиента. Принимаются только поля из
// UpdateCustomerRequest; любое другое поле в теле — ошибка 400.
func UpdateCustomerHandler(c *gin.Context) {
	var customer models.Customer
	if err := config.DB.First(&customer, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	var req UpdateCustomerRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимые поля в запросе: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.CarBrand != nil {
		updates["car_brand"] = *req.CarBrand
	}
	if req.CarModel != nil {
		updates["car_model"] = *req.CarModel
	}
	if req.CarYear != nil {
		updates["car_year"] = *req.CarYear
	}
	if req.CarPurchaseCost != nil {
		updates["car_purchase_cost"] = *req.CarPurchaseCost
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Нет полей для обновления"})
		return
	}

	if err := config.DB.Model(&customer).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить клиента"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Клиент успешно обновлен",
		"customer": customer,
	})
}

// DeleteCustomerHandler удаляет клиента вместе с его платежами и документами
// одной транзакцией. Загруженные файлы (права, паспорт, фото, документы,
// чеки об оплате) удаляются с диска после успешного коммита.
func DeleteCustomerHandler(c *gin.Context) {
	var customer models.Customer
	if err := config.DB.First(&customer, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	var filePaths []string
	for _, p := range []*string{customer.DriverIdPath, customer.PassportPhotoPath, customer.PhotoURL} {
		if p != nil && *p != "" {
			filePaths = append(filePaths, *p)
		}
	}
	var documents []models.Document
	if err := config.DB.Where("customer_id = ?", customer.ID).Find(&documents).Error; err == nil {
		for _, doc := range documents {
			if doc.FilePath != "" {
				filePaths = append(filePaths, doc.FilePath)
			}
		}
	}
	var proofPaths []string
	config.DB.Model(&models.Payment{}).Unscoped().
		Where("customer_id = ? AND proof_of_payment_path IS NOT NULL", customer.ID).
		Pluck("proof_of_payment_path", &proofPaths)
	filePaths = append(filePaths, proofPaths...)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", customer.ID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", customer.ID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&customer).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить клиента"})
		return
	}

	for _, path := range filePaths {
		removeUploadedFile(path)
	}

	InvalidateDashboardCache()
	c.JSON(http.StatusOK, gin.H{"message": "Клиент успешно удален"})
}
