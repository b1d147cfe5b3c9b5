package api

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Age           *int     `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Address       *string  `json:"address,omitempty"`
	FullName      string   `json:"fullName" validate:"required"`
	PhoneNumber   string   `json:"phoneNumber" validate:"required"`
	Password      string   `json:"password" validate:"required"`
	SelectedCrops []string `json:"selectedCrops"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// UpdateProfileRequest представляет запрос на изменение профиля.
// Отсутствующие поля не меняются; selectedCrops, если передан, заменяет набор целиком.
type UpdateProfileRequest struct {
	FullName      *string  `json:"fullName,omitempty"`
	Age           *int     `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Address       *string  `json:"address,omitempty"`
	SelectedCrops []string `json:"selectedCrops"`
}

// User представляет профиль пользователя в ответах API. Пароля здесь нет и быть не должно.
type User struct {
	Age           *int     `json:"age"`
	Address       *string  `json:"address"`
	FullName      string   `json:"fullName"`
	PhoneNumber   string   `json:"phoneNumber"`
	SelectedCrops []string `json:"selectedCrops"`
	ID            int64    `json:"id"`
}

// AuthResponse представляет ответ на успешную регистрацию или логин
type AuthResponse struct {
	User    User   `json:"user"`
	Token   string `json:"token"`
	Success bool   `json:"success"`
}

// ProfileResponse представляет ответ с профилем пользователя
type ProfileResponse struct {
	User    User `json:"user"`
	Success bool `json:"success"`
}

// MessageResponse представляет ответ без данных, только с сообщением
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // http status text
	Message string `json:"message,omitempty"` // человекочитаемое описание
	Success bool   `json:"success"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
