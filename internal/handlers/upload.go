package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Ограничения на загружаемые файлы — как и раньше: не больше 5 МБ,
// только изображения и PDF.
const maxUploadSize = 5 << 20

var allowedUploadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// saveUploadedFile проверяет и сохраняет файл под уникальным именем в
// подкаталоге каталога загрузок. Возвращает публичный путь файла.
// При любой ошибке частично записанный файл удаляется.
func saveUploadedFile(c *gin.Context, file *multipart.FileHeader, subdir string) (string, error) {
	if file.Size > maxUploadSize {
		return "", fmt.Errorf("файл %q больше 5 МБ", file.Filename)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		return "", fmt.Errorf("недопустимый тип файла %q", ext)
	}

	uploadDir := filepath.Join(uploadRoot(), subdir)
	if err := os.MkdirAll(uploadDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("не удалось создать директорию для загрузки: %w", err)
	}

	newFileName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	filePath := filepath.Join(uploadDir, newFileName)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("не удалось сохранить файл: %w", err)
	}

	return "/uploads/" + subdir + "/" + newFileName, nil
}

// removeUploadedFile удаляет сохраненный файл по его публичному пути.
// Используется при откате неудачной записи в БД и при удалении клиента.
func removeUploadedFile(publicPath string) {
	if publicPath == "" {
		return
	}
	rel := strings.TrimPrefix(publicPath, "/uploads/")
	os.Remove(filepath.Join(uploadRoot(), rel))
}

func uploadRoot() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "./uploads"
}
