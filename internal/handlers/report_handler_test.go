package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
)

func TestDashboardStats(t *testing.T) {
	r := setupTestRouter(t)
	customer := seedLease(t, "Ильгар Мамедли")
	payments := customerPayments(t, customer.ID)

	markPath := fmt.Sprintf("/api/payments/%d/mark-paid", payments[0].ID)
	assertStatus(t, doForm(t, r, http.MethodPut, markPath, url.Values{}), http.StatusOK)

	w := doRequest(t, r, http.MethodGet, "/api/reports/dashboard", nil, "")
	assertStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	customers := body["customers"].(map[string]any)
	if customers["total"].(float64) != 1 {
		t.Errorf("total должен быть 1, получен %v", customers["total"])
	}
	financial := body["financial"].(map[string]any)
	if financial["totalPaid"].(float64) != 500 {
		t.Errorf("totalPaid должен быть 500, получен %v", financial["totalPaid"])
	}
	if financial["totalRemaining"].(float64) != 1000 {
		t.Errorf("totalRemaining должен быть 1000, получен %v", financial["totalRemaining"])
	}
}

func TestMonthlyReport(t *testing.T) {
	r := setupTestRouter(t)
	seedLease(t, "Азер Гулиев") // взносы на январь, февраль и март 2024

	w := doRequest(t, r, http.MethodGet, "/api/reports/monthly?year=2024", nil, "")
	assertStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	months := body["months"].([]any)
	if len(months) != 12 {
		t.Fatalf("отчет должен содержать 12 месяцев, получено %d", len(months))
	}

	january := months[0].(map[string]any)
	if january["expected"].(float64) != 500 {
		t.Errorf("ожидаемая сумма за январь должна быть 500, получена %v", january["expected"])
	}
	april := months[3].(map[string]any)
	if april["expected"].(float64) != 0 {
		t.Errorf("за апрель платежей быть не должно, получено %v", april["expected"])
	}
}
