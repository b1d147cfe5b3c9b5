package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/iudanet/agroprofile/internal/crypto"
	"github.com/iudanet/agroprofile/internal/models"
	"github.com/iudanet/agroprofile/internal/server/storage"
	"github.com/iudanet/agroprofile/internal/validation"
	"github.com/iudanet/agroprofile/pkg/api"
)

// maxBodyBytes ограничение на размер тела запроса
const maxBodyBytes = 1 << 20

// TokenIssuer выпускает сессионные токены
type TokenIssuer interface {
	GenerateToken(userID int64) (string, time.Time, error)
}

// AuthHandler обрабатывает запросы авторизации и профиля
type AuthHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	tokens      TokenIssuer
	validate    *validator.Validate
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, tokens TokenIssuer) *AuthHandler {
	v := validator.New()
	// В сообщениях об ошибках используем имена полей из JSON
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &AuthHandler{
		logger:      logger,
		userStorage: userStorage,
		tokens:      tokens,
		validate:    v,
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.RegisterRequest
	if err := h.decode(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		WriteError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validateRegister(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid register request", slog.Any("error", err))
		WriteError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	crops, err := validation.NormalizeCrops(req.SelectedCrops)
	if err != nil {
		WriteError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if crops == nil {
		crops = []string{}
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		WriteError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		FullName:      strings.TrimSpace(req.FullName),
		Age:           req.Age,
		Address:       normalizeAddress(req.Address),
		PhoneNumber:   req.PhoneNumber,
		PasswordHash:  passwordHash,
		SelectedCrops: crops,
	}

	// Пользователь и культуры сохраняются одной транзакцией
	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("phone", maskPhone(req.PhoneNumber)))
			WriteError(h.logger, w, "phone number already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		WriteError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, _, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate token", slog.Any("error", err))
		WriteError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully", slog.Int64("user_id", user.ID))

	resp := api.AuthResponse{
		Success: true,
		Token:   token,
		User:    toAPIUser(user),
	}

	WriteJSON(h.logger, w, resp, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
// Аутентификация пользователя
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		WriteError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(h.logger, w, validationMessage(err), http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("phone", maskPhone(req.PhoneNumber)))
			WriteError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		WriteError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := crypto.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			h.logger.WarnContext(ctx, "login failed: invalid password", slog.Int64("user_id", user.ID))
			WriteError(h.logger, w, "invalid password", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify password", slog.Any("error", err))
		WriteError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, _, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate token", slog.Any("error", err))
		WriteError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully", slog.Int64("user_id", user.ID))

	resp := api.AuthResponse{
		Success: true,
		Token:   token,
		User:    toAPIUser(user),
	}

	WriteJSON(h.logger, w, resp, http.StatusOK)
}

// GetProfile обрабатывает GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		WriteError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "profile requested for missing user", slog.Int64("user_id", userID))
			WriteError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		WriteError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	WriteJSON(h.logger, w, api.ProfileResponse{Success: true, User: toAPIUser(user)}, http.StatusOK)
}

// UpdateProfile обрабатывает PUT /api/v1/auth/profile
// Меняет только имя, возраст, адрес и культуры. Телефон и пароль не меняются.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		WriteError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateProfileRequest
	if err := h.decode(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode update request", slog.Any("error", err))
		WriteError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	update, err := h.buildProfileUpdate(&req)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid update request", slog.Any("error", err))
		WriteError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			WriteError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update profile", slog.Int64("user_id", userID), slog.Any("error", err))
		WriteError(h.logger, w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "profile updated", slog.Int64("user_id", userID))

	WriteJSON(h.logger, w, api.ProfileResponse{Success: true, User: toAPIUser(user)}, http.StatusOK)
}

// DeleteAccount обрабатывает DELETE /api/v1/auth/profile
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		WriteError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.userStorage.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			WriteError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete user", slog.Int64("user_id", userID), slog.Any("error", err))
		WriteError(h.logger, w, "failed to delete account", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "account deleted", slog.Int64("user_id", userID))

	WriteJSON(h.logger, w, api.MessageResponse{Success: true, Message: "Account deleted successfully"}, http.StatusOK)
}

// decode читает JSON тело запроса с ограничением размера
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (h *AuthHandler) validateRegister(req *api.RegisterRequest) error {
	if err := h.validate.Struct(req); err != nil {
		return errors.New(validationMessage(err))
	}
	if err := validation.ValidateFullName(req.FullName); err != nil {
		return err
	}
	if err := validation.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		return err
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return err
	}
	return nil
}

func (h *AuthHandler) buildProfileUpdate(req *api.UpdateProfileRequest) (models.ProfileUpdate, error) {
	if err := h.validate.Struct(req); err != nil {
		return models.ProfileUpdate{}, errors.New(validationMessage(err))
	}

	update := models.ProfileUpdate{
		Age:     req.Age,
		Address: normalizeAddress(req.Address),
	}

	if req.FullName != nil {
		if err := validation.ValidateFullName(*req.FullName); err != nil {
			return models.ProfileUpdate{}, err
		}
		name := strings.TrimSpace(*req.FullName)
		update.FullName = &name
	}

	crops, err := validation.NormalizeCrops(req.SelectedCrops)
	if err != nil {
		return models.ProfileUpdate{}, err
	}
	update.SelectedCrops = crops

	return update, nil
}

// validationMessage превращает ошибки validator в короткое сообщение для клиента
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "max":
		return fmt.Sprintf("%s must be between %d and %d", fe.Field(), validation.MinAge, validation.MaxAge)
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// normalizeAddress обрезает пробелы; nil остается nil
func normalizeAddress(address *string) *string {
	if address == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*address)
	return &trimmed
}

// maskPhone оставляет в логах только последние цифры номера
func maskPhone(phone string) string {
	if len(phone) <= 3 {
		return "***"
	}
	return "***" + phone[len(phone)-3:]
}
