package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/models"
)

func TestMarkPaymentPaidEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Заур Керимов")
	payments := customerPayments(t, customer.ID)

	form := url.Values{}
	form.Set("paymentDate", "2024-01-16")
	form.Set("notes", "наличными")

	w := doForm(t, r, http.MethodPut, fmt.Sprintf("/api/payments/%d/mark-paid", payments[0].ID), form)
	assertStatus(t, w, http.StatusOK)

	var paid models.Payment
	config.DB.First(&paid, payments[0].ID)
	if paid.Status != models.PaymentStatusPaid {
		t.Fatalf("взнос должен быть paid, получен %s", paid.Status)
	}
	if paid.PaymentDate == nil || paid.PaymentDate.Format("2006-01-02") != "2024-01-16" {
		t.Errorf("дата оплаты не сохранилась: %v", paid.PaymentDate)
	}

	var fresh models.Customer
	config.DB.First(&fresh, customer.ID)
	if fresh.TotalPaid != 500 {
		t.Errorf("totalPaid должен быть 500, получен %v", fresh.TotalPaid)
	}
}

func TestMarkPaymentPaidTwiceConflicts(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Кянан Расулов")
	payments := customerPayments(t, customer.ID)

	path := fmt.Sprintf("/api/payments/%d/mark-paid", payments[0].ID)
	assertStatus(t, doForm(t, r, http.MethodPut, path, url.Values{}), http.StatusOK)
	assertStatus(t, doForm(t, r, http.MethodPut, path, url.Values{}), http.StatusConflict)
}

func TestMarkPaymentPaidNotFound(t *testing.T) {
	r := setupTestRouter(t)

	w := doForm(t, r, http.MethodPut, "/api/payments/424242/mark-paid", url.Values{})
	assertStatus(t, w, http.StatusNotFound)
}

func TestRevertPaymentEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Ниджат Агаев")
	payments := customerPayments(t, customer.ID)

	markPath := fmt.Sprintf("/api/payments/%d/mark-paid", payments[0].ID)
	assertStatus(t, doForm(t, r, http.MethodPut, markPath, url.Values{}), http.StatusOK)

	revertPath := fmt.Sprintf("/api/payments/%d/revert", payments[0].ID)
	w := doJSON(t, r, http.MethodPut, revertPath, `{"notes":"ошибка кассира"}`)
	assertStatus(t, w, http.StatusOK)

	var reverted models.Payment
	config.DB.First(&reverted, payments[0].ID)
	if reverted.Status != models.PaymentStatusPending {
		t.Fatalf("взнос должен вернуться в pending, получен %s", reverted.Status)
	}
	if reverted.PaymentDate != nil {
		t.Error("дата оплаты должна быть очищена")
	}

	var fresh models.Customer
	config.DB.First(&fresh, customer.ID)
	if fresh.TotalPaid != 0 {
		t.Errorf("totalPaid должен вернуться к 0, получен %v", fresh.TotalPaid)
	}
}

func TestSweepOverdueEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	seedLease(t, "Вугар Самедов") // взносы 2024 года давно просрочены

	w := doRequest(t, r, http.MethodPost, "/api/payments/update-overdue", nil, "")
	assertStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	if body["flagged"].(float64) != 3 {
		t.Errorf("должны быть помечены 3 взноса, получено %v", body["flagged"])
	}

	var customer models.Customer
	config.DB.First(&customer, 1)
	if customer.Status != models.CustomerStatusOverdue {
		t.Errorf("клиент должен стать overdue, получен %s", customer.Status)
	}

	// Повторный запуск ничего не меняет.
	w = doRequest(t, r, http.MethodPost, "/api/payments/update-overdue", nil, "")
	assertStatus(t, w, http.StatusOK)
	body = decodeBody(t, w)
	if body["flagged"].(float64) != 0 {
		t.Errorf("повторный запуск должен пометить 0 взносов, получено %v", body["flagged"])
	}
}

func TestCloseoutEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Рашад Джафаров")
	payments := customerPayments(t, customer.ID)

	// Оплачиваем первый взнос, остальное закрываем досрочно.
	markPath := fmt.Sprintf("/api/payments/%d/mark-paid", payments[0].ID)
	assertStatus(t, doForm(t, r, http.MethodPut, markPath, url.Values{}), http.StatusOK)

	closePath := fmt.Sprintf("/api/payments/customer/%d/closeout", customer.ID)
	w := doForm(t, r, http.MethodPost, closePath, url.Values{})
	assertStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	if body["amount"].(float64) != 1000 {
		t.Errorf("сумма погашения должна быть 1000, получена %v", body["amount"])
	}

	var fresh models.Customer
	config.DB.First(&fresh, customer.ID)
	if fresh.Status != models.CustomerStatusCompleted {
		t.Errorf("клиент должен стать completed, получен %s", fresh.Status)
	}
	if fresh.TotalPaid != 1500 {
		t.Errorf("totalPaid должен быть 1500, получен %v", fresh.TotalPaid)
	}

	// Повторное закрытие — конфликт: неоплаченных взносов больше нет.
	assertStatus(t, doForm(t, r, http.MethodPost, closePath, url.Values{}), http.StatusConflict)
}

func TestPaymentSummaryEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Эмин Алескеров")
	payments := customerPayments(t, customer.ID)

	markPath := fmt.Sprintf("/api/payments/%d/mark-paid", payments[0].ID)
	assertStatus(t, doForm(t, r, http.MethodPut, markPath, url.Values{}), http.StatusOK)

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/payments/customer/%d/summary", customer.ID), nil, "")
	assertStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	counters := body["payments"].(map[string]any)
	if counters["paid"].(float64) != 1 || counters["pending"].(float64) != 2 {
		t.Errorf("неверные счетчики взносов: %v", counters)
	}
	financial := body["financial"].(map[string]any)
	if financial["paidAmount"].(float64) != 500 {
		t.Errorf("paidAmount должен быть 500, получен %v", financial["paidAmount"])
	}
	if _, ok := body["nextPayment"].(map[string]any); !ok {
		t.Fatalf("nextPayment не должен быть пустым: %v", body["nextPayment"])
	}
}

func TestListPaymentsWithFilters(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Анар Велиев")
	payments := customerPayments(t, customer.ID)

	markPath := fmt.Sprintf("/api/payments/%d/mark-paid", payments[0].ID)
	assertStatus(t, doForm(t, r, http.MethodPut, markPath, url.Values{}), http.StatusOK)

	w := doRequest(t, r, http.MethodGet, "/api/payments?status=paid", nil, "")
	assertStatus(t, w, http.StatusOK)
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("ответ не является JSON-массивом: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("фильтр status=paid должен вернуть 1 платеж, получено %d", len(list))
	}
	if list[0]["customerFullName"] != "Анар Велиев" {
		t.Errorf("в ответе нет имени клиента: %v", list[0])
	}
}
