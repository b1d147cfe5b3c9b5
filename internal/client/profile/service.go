package profile

//go:generate moq -out remote_mock.go . RemoteAPI

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/agroprofile/internal/client/api"
	"github.com/iudanet/agroprofile/internal/client/storage"
	"github.com/iudanet/agroprofile/internal/crypto"
	"github.com/iudanet/agroprofile/internal/validation"
	pkgapi "github.com/iudanet/agroprofile/pkg/api"
)

// LocalTokenPrefix префикс токена локальной регистрации. Сервер такой токен не примет.
const LocalTokenPrefix = "local-"

// RemoteAPI операции сервера, нужные сервису. Реализуется *api.Client.
type RemoteAPI interface {
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.AuthResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.AuthResponse, error)
	GetProfile(ctx context.Context, token string) (*pkgapi.ProfileResponse, error)
	UpdateProfile(ctx context.Context, token string, req pkgapi.UpdateProfileRequest) (*pkgapi.ProfileResponse, error)
	DeleteAccount(ctx context.Context, token string) (*pkgapi.MessageResponse, error)
}

// Options настройки сервиса
type Options struct {
	// AllowCachedLogin разрешает вход по локальной учетной записи, если сервер
	// недоступен. Только для тестовых и демонстрационных сборок.
	AllowCachedLogin bool
}

// Service координирует сервер и локальный кэш профиля
type Service struct {
	remote RemoteAPI
	store  storage.CredentialStore
	logger *slog.Logger
	newID  func() string
	opts   Options
}

// NewService создает сервис профиля
func NewService(remote RemoteAPI, store storage.CredentialStore, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		remote: remote,
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
		opts:   opts,
	}
}

// Register регистрирует фермера. При сетевой ошибке или 5xx профиль
// сохраняется локально с токеном local-<uuid> и пометкой localOnly.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	req, err := buildRegisterRequest(in)
	if err != nil {
		return nil, err
	}

	resp, err := s.remote.Register(ctx, req)
	if err != nil {
		if !IsFallbackEligible(err) {
			return nil, err
		}
		return s.registerLocally(ctx, req, err)
	}

	cached := &CachedUser{User: resp.User}
	sess := Session{Token: resp.Token, UserID: resp.User.ID}
	if err := s.persist(ctx, sess.Token, cached); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "registered", slog.Int64("user_id", resp.User.ID))

	return &Result{
		Origin:  Authoritative,
		Session: sess,
		User:    cached,
		Message: "Registration successful.",
	}, nil
}

func (s *Service) registerLocally(ctx context.Context, req pkgapi.RegisterRequest, remoteErr error) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Join(remoteErr, fmt.Errorf("%w: %w", ErrLocalStore, err))
	}

	crops := req.SelectedCrops
	if crops == nil {
		crops = []string{}
	}

	cached := &CachedUser{
		User: pkgapi.User{
			FullName:      req.FullName,
			Age:           req.Age,
			Address:       req.Address,
			PhoneNumber:   req.PhoneNumber,
			SelectedCrops: crops,
		},
		LocalOnly:       true,
		LocalCredential: hash,
	}
	sess := Session{Token: LocalTokenPrefix + s.newID(), LocalOnly: true}

	if err := s.persist(ctx, sess.Token, cached); err != nil {
		return nil, errors.Join(remoteErr, err)
	}

	s.logger.WarnContext(ctx, "server unavailable, registration saved locally",
		slog.String("error", remoteErr.Error()))

	return &Result{
		Origin:  LocalFallback,
		Session: sess,
		User:    cached,
		Message: "The server is unreachable. Your profile was saved on this device only and is pending sync with the server.",
	}, nil
}

// Login выполняет вход. Кэш используется только при AllowCachedLogin
// и только если сервер недоступен.
func (s *Service) Login(ctx context.Context, phone, password string) (*Result, error) {
	phone = strings.TrimSpace(phone)
	if err := validation.ValidatePhoneNumber(phone); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, invalid(err)
	}

	resp, err := s.remote.Login(ctx, pkgapi.LoginRequest{PhoneNumber: phone, Password: password})
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		case errors.Is(err, api.ErrNotFound):
			return nil, fmt.Errorf("%w: %w", ErrUnknownAccount, err)
		case s.opts.AllowCachedLogin && IsFallbackEligible(err):
			return s.loginFromCache(ctx, phone, password, err)
		}
		return nil, err
	}

	cached := &CachedUser{User: resp.User}
	sess := Session{Token: resp.Token, UserID: resp.User.ID}
	if err := s.persist(ctx, sess.Token, cached); err != nil {
		return nil, err
	}

	return &Result{
		Origin:  Authoritative,
		Session: sess,
		User:    cached,
		Message: "Login successful.",
	}, nil
}

// loginFromCache сверяет телефон и локальный хеш пароля. Ничего не пишет.
func (s *Service) loginFromCache(ctx context.Context, phone, password string, remoteErr error) (*Result, error) {
	sess, cached, err := s.Restore(ctx)
	if err != nil || cached == nil {
		return nil, remoteErr
	}
	if cached.PhoneNumber != phone || cached.LocalCredential == "" {
		return nil, remoteErr
	}
	if err := crypto.VerifyPassword(password, cached.LocalCredential); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, remoteErr
	}

	s.logger.WarnContext(ctx, "server unavailable, logged in from local cache")

	return &Result{
		Origin:  LocalFallback,
		Session: sess,
		User:    cached,
		Message: "Logged in from data on this device (offline mode). Your profile is pending sync with the server.",
	}, nil
}

// FetchProfile загружает профиль с сервера и обновляет кэш.
// Кэш никогда не подменяет ответ сервера.
func (s *Service) FetchProfile(ctx context.Context, sess Session) (*Result, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	resp, err := s.remote.GetProfile(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	cached := &CachedUser{User: resp.User}
	if err := s.saveUser(ctx, cached); err != nil {
		return nil, err
	}

	return &Result{
		Origin:  Authoritative,
		Session: Session{Token: sess.Token, UserID: resp.User.ID},
		User:    cached,
	}, nil
}

// UpdateProfile изменяет профиль. Ввод проверяется до сети и хранилища.
// При сетевой ошибке или 5xx изменения сливаются в кэш с пометкой localOnly.
func (s *Service) UpdateProfile(ctx context.Context, sess Session, in UpdateInput) (*Result, error) {
	req, err := buildUpdateRequest(in)
	if err != nil {
		return nil, err
	}
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	resp, err := s.remote.UpdateProfile(ctx, sess.Token, req)
	if err != nil {
		if !IsFallbackEligible(err) {
			return nil, err
		}
		return s.updateLocally(ctx, sess, req, err)
	}

	cached := &CachedUser{User: resp.User}
	if err := s.saveUser(ctx, cached); err != nil {
		return nil, err
	}

	return &Result{
		Origin:  Authoritative,
		Session: sess,
		User:    cached,
		Message: "Profile updated.",
	}, nil
}

func (s *Service) updateLocally(ctx context.Context, sess Session, req pkgapi.UpdateProfileRequest, remoteErr error) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	cached, err := s.loadUser(ctx)
	if err != nil || cached == nil || cached.ID != sess.UserID {
		// без кэша того же пользователя сливать не во что
		return nil, remoteErr
	}

	if req.FullName != nil {
		cached.FullName = *req.FullName
	}
	if req.Age != nil {
		cached.Age = req.Age
	}
	if req.Address != nil {
		cached.Address = req.Address
	}
	if req.SelectedCrops != nil {
		cached.SelectedCrops = req.SelectedCrops
	}
	cached.LocalOnly = true

	if err := s.saveUser(ctx, cached); err != nil {
		return nil, errors.Join(remoteErr, err)
	}

	s.logger.WarnContext(ctx, "server unavailable, profile update saved locally",
		slog.Int64("user_id", sess.UserID),
		slog.String("error", remoteErr.Error()))

	return &Result{
		Origin:  LocalFallback,
		Session: sess,
		User:    cached,
		Message: "The server is unreachable. Changes were saved on this device only and are pending sync with the server.",
	}, nil
}

// DeleteAccount удаляет аккаунт на сервере и очищает кэш.
// Для локальной регистрации аккаунта на сервере нет, очищается только кэш.
func (s *Service) DeleteAccount(ctx context.Context, sess Session) (*Result, error) {
	if !sess.Authenticated() {
		return nil, ErrNoSession
	}

	if sess.LocalOnly {
		if err := s.Logout(ctx); err != nil {
			return nil, err
		}
		return &Result{Origin: LocalFallback, Message: "Local profile removed from this device."}, nil
	}

	resp, err := s.remote.DeleteAccount(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	// аккаунта на сервере уже нет: кэш чистится и после отмены
	if err := s.Logout(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDeletedCacheKept, err)
	}

	s.logger.DebugContext(ctx, "account deleted", slog.Int64("user_id", sess.UserID))

	msg := resp.Message
	if msg == "" {
		msg = "Account deleted."
	}
	return &Result{Origin: Authoritative, Message: msg}, nil
}

// Logout удаляет токен и кэш профиля
func (s *Service) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}
	if err := s.store.RemoveAll(ctx, storage.KeyAuthToken, storage.KeyUserData); err != nil {
		return fmt.Errorf("%w: %w", ErrLocalStore, err)
	}
	return nil
}

// Restore восстанавливает сессию из хранилища. Профиль может отсутствовать.
func (s *Service) Restore(ctx context.Context) (Session, *CachedUser, error) {
	token, err := s.store.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return Session{}, nil, ErrNoSession
		}
		return Session{}, nil, fmt.Errorf("%w: %w", ErrLocalStore, err)
	}

	sess := Session{Token: token, LocalOnly: strings.HasPrefix(token, LocalTokenPrefix)}

	cached, err := s.loadUser(ctx)
	if err != nil {
		return sess, nil, err
	}
	if cached != nil {
		sess.UserID = cached.ID
	}

	return sess, cached, nil
}

func checkSession(sess Session) error {
	if !sess.Authenticated() {
		return ErrNoSession
	}
	if sess.LocalOnly {
		return ErrLocalOnlySession
	}
	return nil
}

// persist пишет профиль и токен одной транзакцией. Отмененный контекст не пишет ничего.
func (s *Service) persist(ctx context.Context, token string, cached *CachedUser) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	data, err := marshalUser(cached)
	if err != nil {
		return err
	}

	err = s.store.SetAll(ctx, map[string]string{
		storage.KeyUserData:  data,
		storage.KeyAuthToken: token,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return canceled(ctxErr)
		}
		return fmt.Errorf("%w: %w", ErrLocalStore, err)
	}
	return nil
}

func (s *Service) saveUser(ctx context.Context, cached *CachedUser) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	data, err := marshalUser(cached)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, storage.KeyUserData, data); err != nil {
		return fmt.Errorf("%w: %w", ErrLocalStore, err)
	}
	return nil
}

func marshalUser(cached *CachedUser) (string, error) {
	data, err := json.Marshal(cached)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal profile: %w", ErrLocalStore, err)
	}
	return string(data), nil
}

// loadUser возвращает nil без ошибки, если профиль не сохранен
func (s *Service) loadUser(ctx context.Context) (*CachedUser, error) {
	raw, err := s.store.Get(ctx, storage.KeyUserData)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrLocalStore, err)
	}

	var cached CachedUser
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, fmt.Errorf("%w: corrupted profile cache: %w", ErrLocalStore, err)
	}
	if cached.SelectedCrops == nil {
		cached.SelectedCrops = []string{}
	}

	return &cached, nil
}

func buildRegisterRequest(in RegisterInput) (pkgapi.RegisterRequest, error) {
	name := strings.TrimSpace(in.FullName)
	if err := validation.ValidateFullName(name); err != nil {
		return pkgapi.RegisterRequest{}, invalid(err)
	}

	phone := strings.TrimSpace(in.PhoneNumber)
	if err := validation.ValidatePhoneNumber(phone); err != nil {
		return pkgapi.RegisterRequest{}, invalid(err)
	}

	if err := validation.ValidatePassword(in.Password); err != nil {
		return pkgapi.RegisterRequest{}, invalid(err)
	}

	age, err := validation.ParseAge(in.Age)
	if err != nil {
		return pkgapi.RegisterRequest{}, invalid(err)
	}

	crops, err := validation.NormalizeCrops(in.Crops)
	if err != nil {
		return pkgapi.RegisterRequest{}, invalid(err)
	}
	if crops == nil {
		crops = []string{}
	}

	req := pkgapi.RegisterRequest{
		FullName:      name,
		Age:           age,
		PhoneNumber:   phone,
		Password:      in.Password,
		SelectedCrops: crops,
	}
	if addr := strings.TrimSpace(in.Address); addr != "" {
		req.Address = &addr
	}

	return req, nil
}

func buildUpdateRequest(in UpdateInput) (pkgapi.UpdateProfileRequest, error) {
	var req pkgapi.UpdateProfileRequest

	// возраст первым: нечисловой ввод отклоняется раньше всего остального
	if in.Age != nil {
		age, err := validation.ParseAge(*in.Age)
		if err != nil {
			return req, invalid(err)
		}
		req.Age = age
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if err := validation.ValidateFullName(name); err != nil {
			return req, invalid(err)
		}
		req.FullName = &name
	}

	if in.Address != nil {
		addr := strings.TrimSpace(*in.Address)
		req.Address = &addr
	}

	crops, err := validation.NormalizeCrops(in.Crops)
	if err != nil {
		return req, invalid(err)
	}
	req.SelectedCrops = crops

	return req, nil
}
