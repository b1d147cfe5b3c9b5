package storage

import "context"

// Ключи локального хранилища
const (
	// KeyAuthToken сессионный токен (или local-<uuid> для локальной регистрации)
	KeyAuthToken = "auth_token"
	// KeyUserData JSON кэшированного профиля
	KeyUserData = "user_data"
)

// Keys все допустимые ключи
var Keys = []string{KeyAuthToken, KeyUserData}

// CredentialStore defines the device-local key-value store for the session
// token and the cached profile. Values are stored as-is.
// Each call is atomic on its own. SetAll writes several keys in one transaction.
type CredentialStore interface {
	// Get returns the stored value or ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value
	Set(ctx context.Context, key, value string) error

	// SetAll stores all pairs at once: either every key is written or none is
	SetAll(ctx context.Context, values map[string]string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// RemoveAll deletes several keys in one call (logout, account deletion)
	RemoveAll(ctx context.Context, keys ...string) error
}

// ValidKey сообщает, поддерживается ли ключ
func ValidKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
