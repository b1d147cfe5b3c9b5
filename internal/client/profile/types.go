// Package profile синхронизирует профиль фермера с сервером и локальным хранилищем.
//
// Сервер всегда первичен. Локальная запись без подтверждения сервера
// (LocalFallback) допускается только для Register и UpdateProfile и только
// после сетевой ошибки или 5xx. Такая запись помечается localOnly и
// перезаписывается следующим успешным ответом сервера.
package profile

import (
	pkgapi "github.com/iudanet/agroprofile/pkg/api"
)

// Origin источник данных результата операции
type Origin int

const (
	// Authoritative данные подтверждены сервером
	Authoritative Origin = iota + 1
	// LocalFallback данные сохранены только на устройстве и ждут синхронизации
	LocalFallback
)

func (o Origin) String() string {
	switch o {
	case Authoritative:
		return "authoritative"
	case LocalFallback:
		return "local-fallback"
	default:
		return "unknown"
	}
}

// Session текущая сессия. Передается в каждый вызов явно.
type Session struct {
	Token     string
	UserID    int64
	LocalOnly bool
}

// Authenticated сообщает, есть ли токен
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// CachedUser профиль в ключе user_data
type CachedUser struct {
	pkgapi.User
	// LocalCredential bcrypt хеш пароля, только для локальной регистрации
	LocalCredential string `json:"localCredential,omitempty"`
	LocalOnly       bool   `json:"localOnly"`
}

// Result итог успешной операции
type Result struct {
	User    *CachedUser
	Session Session
	Message string
	Origin  Origin
}

// PendingSync сообщает, что данные еще не подтверждены сервером
func (r *Result) PendingSync() bool {
	return r.Origin == LocalFallback
}

// RegisterInput ввод формы регистрации. Возраст в сыром виде.
type RegisterInput struct {
	FullName    string
	Age         string
	Address     string
	PhoneNumber string
	Password    string
	Crops       []string
}

// UpdateInput ввод формы профиля. nil - поле не меняется.
// Crops: nil - не менять, пустой срез - очистить.
type UpdateInput struct {
	FullName *string
	Age      *string
	Address  *string
	Crops    []string
}
