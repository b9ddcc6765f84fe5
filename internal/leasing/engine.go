package leasing

import (
	"errors"
	"fmt"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/models"
	"gorm.io/gorm"
)

// Engine — движок жизненного цикла платежей. Единственный владелец агрегатов
// клиента (TotalPaid, LastPaymentDate, Status): все операции, которые их
// меняют, проходят через движок и выполняются одной транзакцией, так что
// сумма оплаченных взносов и TotalPaid никогда не расходятся.
//
// Соединение с БД передается при создании (никаких глобальных переменных
// внутри движка) — в тестах сюда подставляется sqlite в памяти.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// CreateLeaseInput — данные нового договора лизинга.
type CreateLeaseInput struct {
	FullName    string
	PhoneNumber string

	CarBrand        string
	CarModel        string
	CarYear         int
	CarPurchaseCost float64

	LeasingAmount      float64
	MonthlyInstallment float64
	LeaseDuration      int
	LeaseStartDate     time.Time

	DriverIdPath      *string
	PassportPhotoPath *string
	PhotoURL          *string
}

// MarkPaidOptions — необязательные параметры отметки об оплате.
type MarkPaidOptions struct {
	PaymentDate *time.Time
	ProofPath   *string
	Notes       string
}

// CloseoutOptions — необязательные параметры досрочного погашения.
type CloseoutOptions struct {
	CloseoutDate *time.Time
	ProofPath    *string
}

// CreateLease создает клиента и весь график взносов одной транзакцией.
// Если пакетная вставка графика не удалась, создание клиента откатывается —
// частичный график был бы нарушением корректности.
func (e *Engine) CreateLease(input CreateLeaseInput) (*models.Customer, error) {
	if input.LeasingAmount < 0 {
		return nil, &InvalidInputError{Field: "leasingAmount", Reason: "сумма лизинга не может быть отрицательной"}
	}

	schedule, err := GenerateSchedule(input.LeaseStartDate, input.MonthlyInstallment, input.LeaseDuration)
	if err != nil {
		return nil, err
	}

	customer := models.Customer{
		FullName:           input.FullName,
		PhoneNumber:        input.PhoneNumber,
		CarBrand:           input.CarBrand,
		CarModel:           input.CarModel,
		CarYear:            input.CarYear,
		CarPurchaseCost:    input.CarPurchaseCost,
		LeasingAmount:      input.LeasingAmount,
		MonthlyInstallment: input.MonthlyInstallment,
		LeaseDuration:      input.LeaseDuration,
		LeaseStartDate:     input.LeaseStartDate,
		TotalPaid:          0,
		Status:             models.CustomerStatusActive,
		DriverIdPath:       input.DriverIdPath,
		PassportPhotoPath:  input.PassportPhotoPath,
		PhotoURL:           input.PhotoURL,
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return fmt.Errorf("не удалось сохранить клиента: %w", err)
		}
		for i := range schedule {
			schedule[i].CustomerID = customer.ID
		}
		if err := tx.Create(&schedule).Error; err != nil {
			return fmt.Errorf("не удалось сохранить график платежей: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	customer.Payments = schedule
	return &customer, nil
}

// MarkPaid переводит взнос в статус paid и атомарно обновляет агрегаты
// клиента. Повторная отметка уже оплаченного взноса — ErrAlreadyPaid, а не
// тихое удвоение TotalPaid.
func (e *Engine) MarkPaid(paymentID uint, opts MarkPaidOptions) (*models.Payment, error) {
	var payment models.Payment

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("ошибка при поиске платежа: %w", err)
		}
		if payment.Status == models.PaymentStatusPaid {
			return ErrAlreadyPaid
		}

		now := time.Now()
		paidAt := now
		if opts.PaymentDate != nil {
			paidAt = *opts.PaymentDate
		}

		updates := map[string]interface{}{
			"status":       models.PaymentStatusPaid,
			"payment_date": paidAt,
		}
		if opts.ProofPath != nil {
			updates["proof_of_payment_path"] = *opts.ProofPath
		}
		if opts.Notes != "" {
			updates["notes"] = appendNote(payment.Notes, opts.Notes, now)
		}

		// Условие по статусу защищает от гонки двух одновременных отметок.
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusPaid).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("не удалось обновить платеж: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyPaid
		}

		if err := addToTotalPaid(tx, payment.CustomerID, payment.Amount, &now); err != nil {
			return err
		}
		if err := recomputeCustomerStatus(tx, payment.CustomerID); err != nil {
			return err
		}

		return tx.First(&payment, payment.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Revert переключает взнос между paid и pending.
//
// paid → pending: дата оплаты очищается, сумма вычитается из TotalPaid
// (не ниже нуля). Если у клиента остались просроченные взносы, статус
// остаётся overdue, иначе active — статус всегда считает один и тот же
// пересчет recomputeCustomerStatus.
//
// pending/overdue → paid: как обычная отметка об оплате. Откат из paid
// возвращает именно pending, даже если срок уже прошел: просрочку заново
// выставит ближайшая ежедневная проверка.
//
// Возвращает новый статус платежа.
func (e *Engine) Revert(paymentID uint, notes string) (string, error) {
	var newStatus string

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("ошибка при поиске платежа: %w", err)
		}

		now := time.Now()

		if payment.Status == models.PaymentStatusPaid {
			newStatus = models.PaymentStatusPending
			updates := map[string]interface{}{
				"status":       models.PaymentStatusPending,
				"payment_date": nil,
				"notes":        appendNote(payment.Notes, revertNoteText(notes), now),
			}
			// Условие по статусу — та же защита от гонки, что и в MarkPaid:
			// два одновременных отката не должны вычесть сумму дважды.
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPaid).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("не удалось откатить платеж: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrStateChanged
			}
			if err := subtractFromTotalPaid(tx, payment.CustomerID, payment.Amount); err != nil {
				return err
			}
		} else {
			newStatus = models.PaymentStatusPaid
			updates := map[string]interface{}{
				"status":       models.PaymentStatusPaid,
				"payment_date": now,
			}
			if notes != "" {
				updates["notes"] = appendNote(payment.Notes, notes, now)
			}
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusPaid).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("не удалось обновить платеж: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrAlreadyPaid
			}
			if err := addToTotalPaid(tx, payment.CustomerID, payment.Amount, &now); err != nil {
				return err
			}
		}

		return recomputeCustomerStatus(tx, payment.CustomerID)
	})
	if err != nil {
		return "", err
	}
	return newStatus, nil
}

// SweepOverdue помечает просроченными все pending-взносы с датой раньше asOf
// и переводит их клиентов в статус overdue. TotalPaid не трогается. Повторный
// запуск с той же датой ничего не меняет: уже просроченные строки не
// учитываются. Каждый клиент обрабатывается в собственной транзакции, чтобы
// не терять обновления на фоне одновременных операторских действий.
//
// Возвращает число помеченных взносов.
func (e *Engine) SweepOverdue(asOf time.Time) (int, error) {
	var customerIDs []uint
	err := e.db.Model(&models.Payment{}).
		Distinct("customer_id").
		Where("status = ? AND due_date < ?", models.PaymentStatusPending, asOf).
		Pluck("customer_id", &customerIDs).Error
	if err != nil {
		return 0, fmt.Errorf("не удалось выбрать просроченные платежи: %w", err)
	}

	total := 0
	for _, customerID := range customerIDs {
		err := e.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Payment{}).
				Where("customer_id = ? AND status = ? AND due_date < ?",
					customerID, models.PaymentStatusPending, asOf).
				Update("status", models.PaymentStatusOverdue)
			if res.Error != nil {
				return fmt.Errorf("не удалось пометить платежи просроченными: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				// Состояние успело измениться параллельной операцией.
				return nil
			}
			total += int(res.RowsAffected)

			return tx.Model(&models.Customer{}).
				Where("id = ?", customerID).
				Update("status", models.CustomerStatusOverdue).Error
		})
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Closeout досрочно закрывает договор: все неоплаченные взносы клиента
// (pending и overdue) схлопываются в одну оплаченную строку погашения на их
// суммарную сумму. Исходные неоплаченные строки помечаются удаленными в той
// же транзакции, так что сумма не учитывается дважды и TotalPaid продолжает
// равняться сумме оплаченных строк. После погашения у клиента нет ни одного
// pending-взноса и статус становится completed.
//
// Возвращает сумму погашения.
func (e *Engine) Closeout(customerID uint, opts CloseoutOptions) (float64, error) {
	var settlementAmount float64

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("ошибка при поиске клиента: %w", err)
		}

		var unpaid []models.Payment
		if err := tx.Where("customer_id = ? AND status IN ?",
			customerID, []string{models.PaymentStatusPending, models.PaymentStatusOverdue}).
			Find(&unpaid).Error; err != nil {
			return fmt.Errorf("не удалось получить неоплаченные взносы: %w", err)
		}
		if len(unpaid) == 0 {
			return ErrNothingToClose
		}

		for _, p := range unpaid {
			settlementAmount += p.Amount
		}

		now := time.Now()
		closedAt := now
		if opts.CloseoutDate != nil {
			closedAt = *opts.CloseoutDate
		}

		// Исходные строки уходят в архив (мягкое удаление) — их сумму теперь
		// представляет единственная строка погашения.
		res := tx.Where("customer_id = ? AND status IN ?",
			customerID, []string{models.PaymentStatusPending, models.PaymentStatusOverdue}).
			Delete(&models.Payment{})
		if res.Error != nil {
			return fmt.Errorf("не удалось закрыть неоплаченные взносы: %w", res.Error)
		}
		// Сумма погашения посчитана по прочитанным строкам. Если удалилось
		// другое их число, между чтением и удалением кто-то успел изменить
		// график — сумма недостоверна, транзакция откатывается.
		if res.RowsAffected != int64(len(unpaid)) {
			return ErrStateChanged
		}

		settlement := models.Payment{
			CustomerID:         customerID,
			Amount:             settlementAmount,
			DueDate:            closedAt,
			Status:             models.PaymentStatusPaid,
			PaymentDate:        &closedAt,
			ProofOfPaymentPath: opts.ProofPath,
			Notes:              "Early close-out payment",
			IsEarlyCloseout:    true,
		}
		if err := tx.Create(&settlement).Error; err != nil {
			return fmt.Errorf("не удалось создать платеж погашения: %w", err)
		}

		if err := addToTotalPaid(tx, customerID, settlementAmount, &now); err != nil {
			return err
		}
		return recomputeCustomerStatus(tx, customerID)
	})
	if err != nil {
		return 0, err
	}
	return settlementAmount, nil
}

// recomputeCustomerStatus — единственная точка пересчета статуса клиента.
// Приоритет: есть просроченные взносы → overdue; нет pending → completed;
// иначе active.
func recomputeCustomerStatus(tx *gorm.DB, customerID uint) error {
	var overdueCount, pendingCount int64

	if err := tx.Model(&models.Payment{}).
		Where("customer_id = ? AND status = ?", customerID, models.PaymentStatusOverdue).
		Count(&overdueCount).Error; err != nil {
		return fmt.Errorf("не удалось посчитать просроченные взносы: %w", err)
	}
	if err := tx.Model(&models.Payment{}).
		Where("customer_id = ? AND status = ?", customerID, models.PaymentStatusPending).
		Count(&pendingCount).Error; err != nil {
		return fmt.Errorf("не удалось посчитать ожидающие взносы: %w", err)
	}

	status := models.CustomerStatusActive
	switch {
	case overdueCount > 0:
		status = models.CustomerStatusOverdue
	case pendingCount == 0:
		status = models.CustomerStatusCompleted
	}

	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("не удалось обновить статус клиента: %w", err)
	}
	return nil
}

// addToTotalPaid увеличивает TotalPaid выражением на стороне БД, чтобы два
// одновременных платежа одного клиента не затирали сумму друг друга.
func addToTotalPaid(tx *gorm.DB, customerID uint, amount float64, paidAt *time.Time) error {
	updates := map[string]interface{}{
		"total_paid": gorm.Expr("total_paid + ?", amount),
	}
	if paidAt != nil {
		updates["last_payment_date"] = *paidAt
	}
	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("не удалось обновить сумму оплат клиента: %w", err)
	}
	return nil
}

// subtractFromTotalPaid уменьшает TotalPaid, не опуская его ниже нуля.
func subtractFromTotalPaid(tx *gorm.DB, customerID uint, amount float64) error {
	expr := gorm.Expr(
		"CASE WHEN total_paid - ? < 0 THEN 0 ELSE total_paid - ? END",
		amount, amount)
	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("total_paid", expr).Error; err != nil {
		return fmt.Errorf("не удалось обновить сумму оплат клиента: %w", err)
	}
	return nil
}

// appendNote дописывает примечание к существующим с меткой времени,
// в том же формате, что и ручные пометки операторов.
func appendNote(existing, note string, at time.Time) string {
	if note == "" {
		return existing
	}
	stamped := fmt.Sprintf("[%s] %s", at.Format(time.RFC3339), note)
	if existing == "" {
		return stamped
	}
	return existing + " " + stamped
}

func revertNoteText(notes string) string {
	if notes != "" {
		return notes
	}
	return "Платеж возвращен в статус pending"
}
