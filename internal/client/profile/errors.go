package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/agroprofile/internal/client/api"
)

var (
	// ErrNoSession на устройстве нет сохраненной сессии
	ErrNoSession = errors.New("not logged in")
	// ErrLocalOnlySession профиль есть только на устройстве, сервер о нем не знает
	ErrLocalOnlySession = errors.New("profile exists only on this device")
	// ErrInvalidCredentials неверный пароль при входе
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownAccount при входе указан незарегистрированный номер
	ErrUnknownAccount = errors.New("unknown account")
	// ErrLocalStore ошибка чтения или записи локального хранилища
	ErrLocalStore = errors.New("local storage failure")
	// ErrAccountDeletedCacheKept аккаунт удален на сервере, но кэш очистить не удалось
	ErrAccountDeletedCacheKept = errors.New("account deleted on server, local data not cleared")
)

// ValidationError ввод отклонен на клиенте, до сети и хранилища
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

// Unwrap позволяет errors.Is(err, api.ErrInvalidInput)
func (e *ValidationError) Unwrap() []error {
	return []error{api.ErrInvalidInput, e.Err}
}

func invalid(err error) error {
	return &ValidationError{Err: err}
}

func canceled(err error) error {
	return fmt.Errorf("%w: %w", api.ErrCanceled, err)
}

// IsFallbackEligible сообщает, можно ли заменить ответ сервера локальной записью.
// Да только для сетевой ошибки и 5xx. Отмена никогда не дает fallback.
func IsFallbackEligible(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, api.ErrCanceled) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, api.ErrTransport) || errors.Is(err, api.ErrServerFault)
}

// UserMessage возвращает текст ошибки для пользователя.
// Детали 5xx и сетевых ошибок не раскрываются.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	var statusErr *api.StatusError

	switch {
	case errors.As(err, &validationErr):
		return "Invalid input: " + validationErr.Err.Error() + "."
	case errors.Is(err, ErrAccountDeletedCacheKept):
		return "Your account was deleted on the server, but data on this device could not be removed. Run logout to clear it."
	case errors.Is(err, ErrLocalStore):
		return "Could not access data stored on this device."
	case errors.Is(err, api.ErrCanceled), errors.Is(err, context.Canceled):
		return "The operation was cancelled. Nothing was saved."
	case errors.Is(err, ErrNoSession):
		return "You are not logged in. Please log in or register first."
	case errors.Is(err, ErrLocalOnlySession):
		return "Your profile is saved only on this device and is pending sync. Register again when the server is reachable."
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect password."
	case errors.Is(err, ErrUnknownAccount):
		return "No account is registered with this phone number."
	case errors.Is(err, api.ErrConflict):
		return "This phone number is already registered."
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session is no longer valid. Please log in again."
	case errors.Is(err, api.ErrNotFound):
		return "This account no longer exists."
	case errors.Is(err, api.ErrInvalidInput):
		if errors.As(err, &statusErr) && statusErr.Message != "" {
			return "Invalid input: " + statusErr.Message + "."
		}
		return "Invalid input."
	case errors.Is(err, api.ErrRateLimited):
		return "Too many attempts. Please wait a moment and try again."
	case errors.Is(err, api.ErrServerFault):
		return "The server could not complete the request. Please try again later."
	case errors.Is(err, api.ErrTransport):
		return "Cannot reach the server. Check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
