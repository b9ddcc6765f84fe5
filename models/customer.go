package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы клиента. Поле Customer.Status пересчитывается только движком
// платежей (internal/leasing), напрямую извне оно не редактируется.
const (
	CustomerStatusActive    = "active"
	CustomerStatusCompleted = "completed"
	CustomerStatusOverdue   = "overdue"
)

// Customer описывает клиента лизинга вместе с условиями договора по машине.
// Условия (LeasingAmount, MonthlyInstallment, LeaseDuration, LeaseStartDate)
// после создания на практике не меняются; TotalPaid, LastPaymentDate и Status —
// производные агрегаты, которыми владеет движок платежей.
type Customer struct {
	gorm.Model

	FullName    string `gorm:"column:full_name;not null"    json:"fullName"`
	PhoneNumber string `gorm:"column:phone_number;not null" json:"phoneNumber"`

	// Пути к загруженным файлам; в БД храним только путь, сами файлы на диске.
	DriverIdPath      *string `gorm:"column:driver_id_path"      json:"driverIdPath,omitempty"`
	PassportPhotoPath *string `gorm:"column:passport_photo_path" json:"passportPhotoPath,omitempty"`
	PhotoURL          *string `gorm:"column:photo_url"           json:"photoUrl,omitempty"`

	// Данные автомобиля.
	CarBrand        string  `gorm:"column:car_brand;not null" json:"carBrand"`
	CarModel        string  `gorm:"column:car_model;not null" json:"carModel"`
	CarYear         int     `gorm:"column:car_year;not null"  json:"carYear"`
	CarPurchaseCost float64 `gorm:"column:car_purchase_cost;type:numeric(12,2);default:0" json:"carPurchaseCost"`

	// Условия договора.
	LeasingAmount      float64   `gorm:"column:leasing_amount;type:numeric(12,2);not null"      json:"leasingAmount"`
	MonthlyInstallment float64   `gorm:"column:monthly_installment;type:numeric(12,2);not null" json:"monthlyInstallment"`
	LeaseDuration      int       `gorm:"column:lease_duration;not null"                         json:"leaseDuration"`
	LeaseStartDate     time.Time `gorm:"column:lease_start_date;not null"                       json:"leaseStartDate"`

	// Агрегаты, пересчитываемые движком платежей.
	TotalPaid       float64    `gorm:"column:total_paid;type:numeric(12,2);default:0" json:"totalPaid"`
	LastPaymentDate *time.Time `gorm:"column:last_payment_date"                      json:"lastPaymentDate,omitempty"`
	Status          string     `gorm:"column:status;default:active"                  json:"status"`

	// Связи. При удалении клиента его платежи и документы удаляются каскадно.
	Payments  []Payment  `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	Documents []Document `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (Customer) TableName() string { return "customers" }

// Profit — прибыль по договору: сумма всех взносов минус сумма лизинга.
func (c *Customer) Profit() float64 {
	return c.MonthlyInstallment*float64(c.LeaseDuration) - c.LeasingAmount
}

// RemainingBalance — остаток к оплате по договору.
func (c *Customer) RemainingBalance() float64 {
	return c.MonthlyInstallment*float64(c.LeaseDuration) - c.TotalPaid
}
