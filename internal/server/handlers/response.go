package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/agroprofile/internal/models"
	"github.com/iudanet/agroprofile/pkg/api"
)

// WriteJSON отправляет JSON ответ
func WriteJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// WriteError отправляет JSON ответ с ошибкой
func WriteError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Success: false,
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	WriteJSON(logger, w, resp, statusCode)
}

// toAPIUser конвертирует доменную модель в ответ API (без пароля)
func toAPIUser(user *models.User) api.User {
	crops := user.SelectedCrops
	if crops == nil {
		crops = []string{}
	}
	return api.User{
		ID:            user.ID,
		FullName:      user.FullName,
		PhoneNumber:   user.PhoneNumber,
		Age:           user.Age,
		Address:       user.Address,
		SelectedCrops: crops,
	}
}
