package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Классы ошибок клиента. Конкретная ошибка оборачивает один из них.
var (
	// ErrInvalidInput запрос отклонен как некорректный (400)
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict номер телефона уже занят (409)
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized неверный пароль или токен (401)
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound пользователя нет (404)
	ErrNotFound = errors.New("not found")
	// ErrRateLimited сервер ограничил частоту запросов (429)
	ErrRateLimited = errors.New("rate limited")
	// ErrServerFault ошибка на стороне сервера (5xx или битый ответ)
	ErrServerFault = errors.New("server fault")
	// ErrTransport ответ не получен: DNS, отказ в соединении, таймаут
	ErrTransport = errors.New("transport error")
	// ErrCanceled запрос отменен вызывающей стороной
	ErrCanceled = errors.New("request canceled")
)

// StatusError non-2xx ответ сервера
type StatusError struct {
	kind       error
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
}

// Unwrap возвращает класс ошибки, чтобы работал errors.Is
func (e *StatusError) Unwrap() error {
	return e.kind
}

// NewStatusError классифицирует ответ по HTTP статусу
func NewStatusError(statusCode int, message string) *StatusError {
	return &StatusError{
		StatusCode: statusCode,
		Message:    message,
		kind:       classifyStatus(statusCode),
	}
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusConflict:
		return ErrConflict
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 400 && code < 500:
		return ErrInvalidInput
	default:
		return ErrServerFault
	}
}
