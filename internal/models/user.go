package models

import "time"

// User представляет фермера в системе
type User struct {
	CreatedAt     time.Time `json:"created_at"`     // время создания
	UpdatedAt     time.Time `json:"updated_at"`     // время последнего изменения профиля
	Age           *int      `json:"age"`            // возраст (опционально)
	Address       *string   `json:"address"`        // адрес в свободной форме (опционально)
	FullName      string    `json:"full_name"`      // полное имя
	PhoneNumber   string    `json:"phone_number"`   // уникальный номер телефона, не меняется после создания
	PasswordHash  string    `json:"-"`              // bcrypt хеш пароля, наружу не отдается
	SelectedCrops []string  `json:"selected_crops"` // выбранные культуры (множество, без дублей)
	ID            int64     `json:"id"`             // назначается сервером
}

// ProfileUpdate описывает изменяемые поля профиля.
// nil означает "оставить как есть". SelectedCrops != nil заменяет набор культур целиком,
// в том числе пустым списком.
type ProfileUpdate struct {
	FullName      *string
	Age           *int
	Address       *string
	SelectedCrops []string
}
