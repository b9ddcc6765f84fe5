package handlers

import (
	"errors"
	"net/http"

	"github.com/piyushkhatri968/Waqarr-project/config"
	"github.com/piyushkhatri968/Waqarr-project/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UploadDocumentHandler прикрепляет документ к клиенту.
func UploadDocumentHandler(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}

	if err := config.DB.First(&models.Customer{}, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Клиент не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске клиента"})
		return
	}

	docType := c.PostForm("type")
	if !models.ValidDocumentType(docType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимый тип документа"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл не передан"})
		return
	}

	path, err := saveUploadedFile(c, file, "documents")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	document := models.Document{
		CustomerID:   customerID,
		Type:         docType,
		FilePath:     path,
		OriginalName: file.Filename,
		MimeType:     file.Header.Get("Content-Type"),
		FileSize:     file.Size,
		Description:  c.PostForm("description"),
	}
	if err := config.DB.Create(&document).Error; err != nil {
		removeUploadedFile(path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить документ"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Документ загружен",
		"document": document,
	})
}

// ListCustomerDocumentsHandler возвращает документы клиента.
func ListCustomerDocumentsHandler(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}

	var documents []models.Document
	query := config.DB.Where("customer_id = ?", customerID).Order("created_at DESC")
	if docType := c.Query("type"); docType != "" {
		query = query.Where("type = ?", docType)
	}
	if err := query.Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить документы"})
		return
	}

	c.JSON(http.StatusOK, documents)
}

// DeleteDocumentHandler удаляет документ вместе с файлом.
func DeleteDocumentHandler(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var document models.Document
	if err := config.DB.First(&document, documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Документ не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске документа"})
		return
	}

	if err := config.DB.Unscoped().Delete(&document).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить документ"})
		return
	}
	removeUploadedFile(document.FilePath)

	c.JSON(http.StatusOK, gin.H{"message": "Документ удален"})
}
