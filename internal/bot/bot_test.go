package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/internal/leasing"
	"github.com/piyushkhatri968/Waqarr-project/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupBotTestDB(t *testing.T) *leasing.Engine {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("не удалось открыть тестовую БД: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.Payment{}, &models.Document{}, &models.User{}); err != nil {
		t.Fatalf("миграция тестовой БД: %v", err)
	}
	config.DB = db
	return leasing.NewEngine(db)
}

// Срез данных для ассистента должен содержать реальные счетчики и суммы,
// а не только формулировку вопроса.
func TestDataSnapshotReflectsStore(t *testing.T) {
	engine := setupBotTestDB(t)

	customer, err := engine.CreateLease(leasing.CreateLeaseInput{
		FullName:           "Вюсал Гаджиев",
		PhoneNumber:        "+994501112233",
		CarBrand:           "Toyota",
		CarModel:           "Corolla",
		CarYear:            2022,
		CarPurchaseCost:    9000,
		LeasingAmount:      10000,
		MonthlyInstallment: 500,
		LeaseDuration:      3,
		LeaseStartDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateLease: %v", err)
	}

	var payments []models.Payment
	if err := config.DB.Where("customer_id = ?", customer.ID).
		Order("due_date ASC").Find(&payments).Error; err != nil {
		t.Fatalf("не удалось получить платежи: %v", err)
	}
	if _, err := engine.MarkPaid(payments[0].ID, leasing.MarkPaidOptions{}); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if _, err := engine.SweepOverdue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("SweepOverdue: %v", err)
	}

	b := &Bot{}
	snapshot := b.dataSnapshot()

	for _, want := range []string{
		"Клиентов всего: 1",
		"с просрочкой 1",
		"собрано: 500.00",
		"Вложено в автомобили: 9000.00",
		"Просроченных взносов: 1 на сумму 500.00",
	} {
		if !strings.Contains(snapshot, want) {
			t.Errorf("в срезе данных нет %q:\n%s", want, snapshot)
		}
	}
}
