package handlers

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/models"
)

func TestCreateCustomerEndpoint(t *testing.T) {
	r := setupTestRouter(t)

	form := url.Values{}
	form.Set("fullName", "Руслан Мамедов")
	form.Set("phoneNumber", "+994551234567")
	form.Set("carBrand", "Hyundai")
	form.Set("carModel", "Elantra")
	form.Set("carYear", "2021")
	form.Set("carPurchaseCost", "12000")
	form.Set("leasingAmount", "18000")
	form.Set("monthlyInstallment", "1500")
	form.Set("leaseDuration", "12")
	form.Set("leaseStartDate", "2024-03-10")

	w := doForm(t, r, http.MethodPost, "/api/customers", form)
	assertStatus(t, w, http.StatusCreated)

	var customer models.Customer
	if err := config.DB.Where("full_name = ?", "Руслан Мамедов").First(&customer).Error; err != nil {
		t.Fatalf("клиент не создан: %v", err)
	}
	if customer.Status != models.CustomerStatusActive {
		t.Errorf("новый клиент должен быть active, получен %s", customer.Status)
	}

	payments := customerPayments(t, customer.ID)
	if len(payments) != 12 {
		t.Fatalf("ожидалось 12 взносов, получено %d", len(payments))
	}
	if got := payments[0].DueDate.Format("2006-01-02"); got != "2024-03-10" {
		t.Errorf("первый взнос должен быть 2024-03-10, получен %s", got)
	}
}

func TestCreateCustomerRejectsBadSchedule(t *testing.T) {
	r := setupTestRouter(t)

	form := url.Values{}
	form.Set("fullName", "Плохой График")
	form.Set("phoneNumber", "+994551234567")
	form.Set("carBrand", "Kia")
	form.Set("carModel", "Rio")
	form.Set("carYear", "2019")
	form.Set("leasingAmount", "1000")
	form.Set("monthlyInstallment", "500")
	form.Set("leaseDuration", "0") // срок меньше месяца
	form.Set("leaseStartDate", "2024-03-10")

	w := doForm(t, r, http.MethodPost, "/api/customers", form)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestListCustomersSearch(t *testing.T) {
	r := setupTestRouter(t)
	seedLease(t, "Orkhan Aliyev")
	seedLease(t, "Samir Guseynov")

	w := doRequest(t, r, http.MethodGet, "/api/customers?search=orkhan", nil, "")
	assertStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("в ответе нет массива data: %s", w.Body.String())
	}
	if len(data) != 1 {
		t.Fatalf("поиск должен найти одного клиента, найдено %d", len(data))
	}
	if body["totalRows"].(float64) != 1 {
		t.Errorf("totalRows должен быть 1, получен %v", body["totalRows"])
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	r := setupTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/customers/9999", nil, "")
	assertStatus(t, w, http.StatusNotFound)
}

func TestUpdateCustomerRejectsAggregateFields(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Фарид Исмаилов")

	// Агрегатами владеет движок платежей, прямое изменение запрещено.
	w := doJSON(t, r, http.MethodPut, "/api/customers/1", `{"totalPaid": 99999}`)
	assertStatus(t, w, http.StatusBadRequest)

	var fresh models.Customer
	config.DB.First(&fresh, customer.ID)
	if fresh.TotalPaid != 0 {
		t.Errorf("totalPaid не должен меняться, получен %v", fresh.TotalPaid)
	}
}

func TestUpdateCustomerAllowedFields(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Эльчин Наджафов")

	w := doJSON(t, r, http.MethodPut, "/api/customers/1", `{"phoneNumber": "+994709998877", "carModel": "Sonata"}`)
	assertStatus(t, w, http.StatusOK)

	var fresh models.Customer
	config.DB.First(&fresh, customer.ID)
	if fresh.PhoneNumber != "+994709998877" {
		t.Errorf("телефон не обновился: %s", fresh.PhoneNumber)
	}
	if fresh.CarModel != "Sonata" {
		t.Errorf("модель не обновилась: %s", fresh.CarModel)
	}
}

func TestDeleteCustomerCascades(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Тогрул Байрамов")

	w := doRequest(t, r, http.MethodDelete, "/api/customers/1", nil, "")
	assertStatus(t, w, http.StatusOK)

	var customerCount, paymentCount int64
	config.DB.Model(&models.Customer{}).Where("id = ?", customer.ID).Count(&customerCount)
	config.DB.Model(&models.Payment{}).Where("customer_id = ?", customer.ID).Count(&paymentCount)
	if customerCount != 0 {
		t.Error("клиент должен быть удален")
	}
	if paymentCount != 0 {
		t.Errorf("платежи должны быть удалены, осталось %d", paymentCount)
	}
}

func TestDeleteCustomerRemovesUploadedFiles(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Анар Керимов")

	root := os.Getenv("UPLOAD_DIR")
	writeFile := func(publicPath string) string {
		t.Helper()
		full := filepath.Join(root, strings.TrimPrefix(publicPath, "/uploads/"))
		if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
			t.Fatalf("не удалось создать каталог: %v", err)
		}
		if err := os.WriteFile(full, []byte("test"), 0o644); err != nil {
			t.Fatalf("не удалось записать файл: %v", err)
		}
		return full
	}

	photoURL := "/uploads/customers/photo.jpg"
	docPath := "/uploads/documents/contract.pdf"
	proofPath := "/uploads/proofs/receipt.jpg"
	onDisk := []string{writeFile(photoURL), writeFile(docPath), writeFile(proofPath)}

	if err := config.DB.Model(&models.Customer{}).Where("id = ?", customer.ID).
		Update("photo_url", photoURL).Error; err != nil {
		t.Fatalf("не удалось привязать фото: %v", err)
	}
	doc := models.Document{
		CustomerID:   customer.ID,
		Type:         models.DocumentTypeOther,
		FilePath:     docPath,
		OriginalName: "contract.pdf",
		MimeType:     "application/pdf",
		FileSize:     4,
	}
	if err := config.DB.Create(&doc).Error; err != nil {
		t.Fatalf("не удалось создать документ: %v", err)
	}
	payments := customerPayments(t, customer.ID)
	if err := config.DB.Model(&models.Payment{}).Where("id = ?", payments[0].ID).
		Update("proof_of_payment_path", proofPath).Error; err != nil {
		t.Fatalf("не удалось привязать чек: %v", err)
	}

	w := doRequest(t, r, http.MethodDelete, "/api/customers/1", nil, "")
	assertStatus(t, w, http.StatusOK)

	for _, full := range onDisk {
		if _, err := os.Stat(full); !os.IsNotExist(err) {
			t.Errorf("файл %s должен быть удален вместе с клиентом", full)
		}
	}
}
