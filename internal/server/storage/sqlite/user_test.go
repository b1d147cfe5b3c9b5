package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/agroprofile/internal/models"
	"github.com/iudanet/agroprofile/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func newTestUser(phone string, crops ...string) *models.User {
	age := 35
	address := "Kandy"
	return &models.User{
		FullName:      "Test Farmer",
		Age:           &age,
		Address:       &address,
		PhoneNumber:   phone,
		PasswordHash:  "$2a$10$hash",
		SelectedCrops: crops,
	}
}

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		user      *models.User
		name      string
		wantCrops []string
	}{
		{
			name:      "create user with crops",
			user:      newTestUser("+94000", "Rice", "Coconut"),
			wantCrops: []string{"Coconut", "Rice"},
		},
		{
			name:      "create user without crops",
			user:      newTestUser("+94001"),
			wantCrops: []string{},
		},
		{
			name: "create user without optional fields",
			user: &models.User{
				FullName:     "Minimal",
				PhoneNumber:  "+94002",
				PasswordHash: "hash",
			},
			wantCrops: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			require.NoError(t, err)
			assert.Positive(t, tt.user.ID)

			// Verify user was created
			retrieved, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, retrieved.ID)
			assert.Equal(t, tt.user.FullName, retrieved.FullName)
			assert.Equal(t, tt.user.PhoneNumber, retrieved.PhoneNumber)
			assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
			assert.Equal(t, tt.user.Age, retrieved.Age)
			assert.Equal(t, tt.user.Address, retrieved.Address)
			assert.Equal(t, tt.wantCrops, retrieved.SelectedCrops)
			assert.False(t, retrieved.CreatedAt.IsZero())
		})
	}
}

func TestUserStorage_CreateUser_DuplicatePhone(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, newTestUser("+94000", "Rice")))

	// Все остальные поля отличаются, но телефон тот же
	second := &models.User{
		FullName:      "Someone Else",
		PhoneNumber:   "+94000",
		PasswordHash:  "other",
		SelectedCrops: []string{"Tea"},
	}
	err := s.CreateUser(ctx, second)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	assert.Zero(t, second.ID)
}

func TestUserStorage_CreateUser_RollbackOnCropFailure(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	// Дубль культуры нарушает первичный ключ user_crops на второй вставке:
	// пользователь тоже не должен остаться в базе
	user := newTestUser("+94003", "Rice", "Rice")
	err := s.CreateUser(ctx, user)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrUserAlreadyExists)
	assert.Zero(t, user.ID)

	_, err = s.GetUserByPhone(ctx, "+94003")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	var count int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM user_crops`).Scan(&count))
	assert.Zero(t, count)
}

func TestUserStorage_GetUserByPhone(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("+94777", "Tea")
	require.NoError(t, s.CreateUser(ctx, user))

	tests := []struct {
		wantError error
		name      string
		phone     string
	}{
		{name: "existing user", phone: "+94777"},
		{name: "unknown phone", phone: "+94778", wantError: storage.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetUserByPhone(ctx, tt.phone)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, []string{"Tea"}, got.SelectedCrops)
		})
	}
}

func TestUserStorage_GetUserByID_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByID(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("+94100", "Rice", "Coconut")
	require.NoError(t, s.CreateUser(ctx, user))

	newName := "Renamed Farmer"
	newAge := 40
	updated, err := s.UpdateProfile(ctx, user.ID, models.ProfileUpdate{
		FullName:      &newName,
		Age:           &newAge,
		SelectedCrops: []string{"Tea"},
	})
	require.NoError(t, err)

	// Набор культур заменяется, а не объединяется
	assert.Equal(t, []string{"Tea"}, updated.SelectedCrops)
	assert.Equal(t, newName, updated.FullName)
	assert.Equal(t, &newAge, updated.Age)
	// Не переданные поля остаются прежними
	assert.Equal(t, user.Address, updated.Address)
	// Телефон и пароль не меняются
	assert.Equal(t, user.PhoneNumber, updated.PhoneNumber)
	assert.Equal(t, user.PasswordHash, updated.PasswordHash)

	stored, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.SelectedCrops, stored.SelectedCrops)
	assert.Equal(t, updated.FullName, stored.FullName)
}

func TestUserStorage_UpdateProfile_CropsSemantics(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("+94101", "Rice", "Coconut")
	require.NoError(t, s.CreateUser(ctx, user))

	// nil - культуры не трогаем
	name := "Only Name"
	updated, err := s.UpdateProfile(ctx, user.ID, models.ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, []string{"Coconut", "Rice"}, updated.SelectedCrops)

	// пустой список - очищаем
	updated, err = s.UpdateProfile(ctx, user.ID, models.ProfileUpdate{SelectedCrops: []string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.SelectedCrops)
}

func TestUserStorage_UpdateProfile_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("+94102", "Rice")
	require.NoError(t, s.CreateUser(ctx, user))

	address := "Galle"
	update := models.ProfileUpdate{Address: &address, SelectedCrops: []string{"Pepper", "Tea"}}

	first, err := s.UpdateProfile(ctx, user.ID, update)
	require.NoError(t, err)
	second, err := s.UpdateProfile(ctx, user.ID, update)
	require.NoError(t, err)

	assert.Equal(t, first.FullName, second.FullName)
	assert.Equal(t, first.Age, second.Age)
	assert.Equal(t, first.Address, second.Address)
	assert.Equal(t, first.SelectedCrops, second.SelectedCrops)
}

func TestUserStorage_UpdateProfile_RollbackOnCropFailure(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("+94103", "Rice", "Coconut")
	require.NoError(t, s.CreateUser(ctx, user))

	name := "Should Not Persist"
	_, err := s.UpdateProfile(ctx, user.ID, models.ProfileUpdate{
		FullName:      &name,
		SelectedCrops: []string{"Tea", "Tea"},
	})
	require.Error(t, err)

	// Ни имя, ни удаление старых культур не должны примениться
	stored, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Farmer", stored.FullName)
	assert.Equal(t, []string{"Coconut", "Rice"}, stored.SelectedCrops)
}

func TestUserStorage_UpdateProfile_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	name := "Ghost"
	_, err := s.UpdateProfile(context.Background(), 12345, models.ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_DeleteUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("+94200", "Rice", "Tea")
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.DeleteUser(ctx, user.ID))

	_, err := s.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	var count int
	require.NoError(t, s.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_crops WHERE user_id = ?`, user.ID).Scan(&count))
	assert.Zero(t, count)

	// Повторное удаление
	assert.ErrorIs(t, s.DeleteUser(ctx, user.ID), storage.ErrUserNotFound)

	// Телефон снова свободен
	require.NoError(t, s.CreateUser(ctx, newTestUser("+94200")))
}

func TestUserStorage_ConcurrentRegisterSamePhone(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, filepath.Join(t.TempDir(), "concurrent.db"))
	require.NoError(t, err)
	defer s.Close()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateUser(ctx, newTestUser("+94999", "Rice"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, storage.ErrUserAlreadyExists):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func TestStorage_Ping(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.NoError(t, s.Ping(context.Background()))
}
