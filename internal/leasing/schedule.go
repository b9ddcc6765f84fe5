package leasing

import (
	"time"

	"github.com/piyushkhatri968/Waqarr-project/models"
)

// GenerateSchedule строит график взносов по условиям договора: ровно months
// записей со статусом pending, взнос i назначен на дату старта плюс i
// календарных месяцев. Арифметика календарная, а не "плюс 30 дней": если в
// целевом месяце нет такого числа, дата прижимается к последнему дню месяца
// (31 января → 28/29 февраля).
//
// Функция чистая: запись графика в БД выполняет Engine.CreateLease одной
// транзакцией вместе с созданием клиента.
func GenerateSchedule(startDate time.Time, monthlyInstallment float64, months int) ([]models.Payment, error) {
	if months < 1 {
		return nil, &InvalidInputError{Field: "leaseDuration", Reason: "срок договора должен быть не меньше одного месяца"}
	}
	if monthlyInstallment < 0 {
		return nil, &InvalidInputError{Field: "monthlyInstallment", Reason: "ежемесячный взнос не может быть отрицательным"}
	}
	if startDate.IsZero() {
		return nil, &InvalidInputError{Field: "leaseStartDate", Reason: "не указана дата начала договора"}
	}

	schedule := make([]models.Payment, 0, months)
	for i := 0; i < months; i++ {
		schedule = append(schedule, models.Payment{
			DueDate: addMonthsClamped(startDate, i),
			Amount:  monthlyInstallment,
			Status:  models.PaymentStatusPending,
		})
	}
	return schedule, nil
}

// addMonthsClamped прибавляет календарные месяцы, прижимая число к последнему
// дню целевого месяца. time.AddDate здесь не подходит: он "переносит" лишние
// дни в следующий месяц (31 января + месяц = 2/3 марта).
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()

	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
