package leasing

import (
	"errors"
	"fmt"
)

// Типизированные ошибки движка. Обработчики сопоставляют их с HTTP-кодами:
// NotFound → 404, InvalidInput → 400, AlreadyPaid/NothingToClose/StateChanged → 409,
// всё остальное — ошибка хранилища, операцию безопасно повторить целиком.
var (
	ErrCustomerNotFound = errors.New("клиент не найден")
	ErrPaymentNotFound  = errors.New("платеж не найден")
	ErrAlreadyPaid      = errors.New("платеж уже отмечен как оплаченный")
	ErrNothingToClose   = errors.New("у клиента нет неоплаченных взносов")
	// ErrStateChanged — между чтением и записью вмешалась параллельная
	// операция; агрегаты не тронуты, запрос можно повторить.
	ErrStateChanged = errors.New("платежи изменены параллельной операцией, повторите запрос")
)

// InvalidInputError описывает некорректные условия договора или аргументы операции.
// После такой ошибки повторять запрос без исправления данных бессмысленно.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("некорректное значение %q: %s", e.Field, e.Reason)
}

// IsInvalidInput сообщает, относится ли ошибка к классу InvalidInput.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
