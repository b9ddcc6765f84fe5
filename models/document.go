package models

import "gorm.io/gorm"

// Типы документов клиента.
const (
	DocumentTypeDriverId     = "driverId"
	DocumentTypePassport     = "passport"
	DocumentTypePaymentProof = "paymentProof"
	DocumentTypeOther        = "other"
)

// Document — загруженный документ клиента (права, паспорт, чек об оплате).
// Файл лежит на диске, в БД хранится только путь и метаданные.
type Document struct {
	gorm.Model

	CustomerID uint     `gorm:"column:customer_id;not null;index" json:"customerId"`
	Customer   Customer `gorm:"foreignKey:CustomerID"             json:"-"`

	Type         string `gorm:"column:type;not null"          json:"type"`
	FilePath     string `gorm:"column:file_path;not null"     json:"filePath"`
	OriginalName string `gorm:"column:original_name;not null" json:"originalName"`
	MimeType     string `gorm:"column:mime_type;not null"     json:"mimeType"`
	FileSize     int64  `gorm:"column:file_size;not null"     json:"fileSize"`
	Description  string `gorm:"column:description;type:text"  json:"description"`
}

func (Document) TableName() string { return "documents" }

// ValidDocumentType проверяет, что тип документа из разрешенного набора.
func ValidDocumentType(t string) bool {
	switch t {
	case DocumentTypeDriverId, DocumentTypePassport, DocumentTypePaymentProof, DocumentTypeOther:
		return true
	}
	return false
}
