package leasing

import (
	"testing"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/models"
)

func TestGenerateScheduleMonthlyDates(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(start, 500, 3)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("ожидалось 3 взноса, получено %d", len(schedule))
	}

	wantDates := []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, p := range schedule {
		if !p.DueDate.Equal(wantDates[i]) {
			t.Errorf("взнос %d: дата %v, ожидалась %v", i, p.DueDate, wantDates[i])
		}
		if p.Amount != 500 {
			t.Errorf("взнос %d: сумма %v, ожидалась 500", i, p.Amount)
		}
		if p.Status != models.PaymentStatusPending {
			t.Errorf("взнос %d: статус %q, ожидался pending", i, p.Status)
		}
	}
}

func TestGenerateScheduleStrictlyIncreasing(t *testing.T) {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(start, 250, 24)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if len(schedule) != 24 {
		t.Fatalf("ожидалось 24 взноса, получено %d", len(schedule))
	}
	if !schedule[0].DueDate.Equal(start) {
		t.Errorf("первый взнос %v, ожидался %v", schedule[0].DueDate, start)
	}
	for i := 1; i < len(schedule); i++ {
		if !schedule[i].DueDate.After(schedule[i-1].DueDate) {
			t.Errorf("даты не возрастают: %v -> %v", schedule[i-1].DueDate, schedule[i].DueDate)
		}
	}
}

// 31 января не существует в феврале: дата должна прижиматься к последнему дню
// месяца, а не переноситься на начало марта.
func TestGenerateScheduleClampsToEndOfMonth(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(start, 100, 4)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}

	wantDates := []time.Time{
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), // високосный февраль
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	for i, p := range schedule {
		if !p.DueDate.Equal(wantDates[i]) {
			t.Errorf("взнос %d: дата %v, ожидалась %v", i, p.DueDate, wantDates[i])
		}
	}
}

func TestGenerateScheduleClampsNonLeapFebruary(t *testing.T) {
	start := time.Date(2023, 1, 30, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(start, 100, 2)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	want := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	if !schedule[1].DueDate.Equal(want) {
		t.Errorf("второй взнос %v, ожидался %v", schedule[1].DueDate, want)
	}
}

func TestGenerateScheduleRejectsBadTerms(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := GenerateSchedule(start, 500, 0); !IsInvalidInput(err) {
		t.Errorf("нулевой срок: ожидалась InvalidInputError, получено %v", err)
	}
	if _, err := GenerateSchedule(start, -1, 12); !IsInvalidInput(err) {
		t.Errorf("отрицательный взнос: ожидалась InvalidInputError, получено %v", err)
	}
	if _, err := GenerateSchedule(time.Time{}, 500, 12); !IsInvalidInput(err) {
		t.Errorf("нулевая дата: ожидалась InvalidInputError, получено %v", err)
	}
}
