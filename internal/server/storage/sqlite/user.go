package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iudanet/agroprofile/internal/models"
	"github.com/iudanet/agroprofile/internal/server/storage"
)

const selectUserColumns = `
	SELECT id, full_name, age, address, phone_number, password_hash, created_at, updated_at
	FROM users
`

// CreateUser creates a new user and its crops in one transaction
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	err := s.withTx(ctx, func(tx dbtx) error {
		query := `
			INSERT INTO users (full_name, age, address, phone_number, password_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, query,
			user.FullName,
			nullInt(user.Age),
			nullString(user.Address),
			user.PhoneNumber,
			user.PasswordHash,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			// Проверяем на duplicate phone number
			if isPhoneConflict(err) {
				return storage.ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get user id: %w", err)
		}

		if err := insertCrops(ctx, tx, id, user.SelectedCrops); err != nil {
			return err
		}

		user.ID = id
		return nil
	})
	if err != nil {
		user.ID = 0
		return err
	}

	if user.SelectedCrops == nil {
		user.SelectedCrops = []string{}
	}

	return nil
}

// GetUserByPhone retrieves user by phone number
func (s *Storage) GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	return getUser(ctx, s.db, "phone_number = ?", phoneNumber)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return getUser(ctx, s.db, "id = ?", userID)
}

// UpdateProfile overwrites mutable profile fields and replaces crops
func (s *Storage) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.User, error) {
	var updated *models.User

	err := s.withTx(ctx, func(tx dbtx) error {
		current, err := getUser(ctx, tx, "id = ?", userID)
		if err != nil {
			return err
		}

		if update.FullName != nil {
			current.FullName = *update.FullName
		}
		if update.Age != nil {
			current.Age = update.Age
		}
		if update.Address != nil {
			current.Address = update.Address
		}
		current.UpdatedAt = time.Now().UTC()

		query := `
			UPDATE users
			SET full_name = ?, age = ?, address = ?, updated_at = ?
			WHERE id = ?
		`

		// phone_number и password_hash здесь не трогаем никогда
		if _, err := tx.ExecContext(ctx, query,
			current.FullName,
			nullInt(current.Age),
			nullString(current.Address),
			current.UpdatedAt,
			userID,
		); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		// Набор культур заменяется целиком: delete + insert в той же транзакции
		if update.SelectedCrops != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM user_crops WHERE user_id = ?`, userID); err != nil {
				return fmt.Errorf("failed to delete crops: %w", err)
			}
			if err := insertCrops(ctx, tx, userID, update.SelectedCrops); err != nil {
				return err
			}
		}

		updated, err = getUser(ctx, tx, "id = ?", userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteUser deletes crops and the user row in one transaction
func (s *Storage) DeleteUser(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_crops WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete crops: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rows == 0 {
			return storage.ErrUserNotFound
		}

		return nil
	})
}

// getUser загружает пользователя вместе с культурами
func getUser(ctx context.Context, q dbtx, where string, arg any) (*models.User, error) {
	user := &models.User{}
	var (
		age     sql.NullInt64
		address sql.NullString
	)

	err := q.QueryRowContext(ctx, selectUserColumns+" WHERE "+where, arg).Scan(
		&user.ID,
		&user.FullName,
		&age,
		&address,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if age.Valid {
		v := int(age.Int64)
		user.Age = &v
	}
	if address.Valid {
		user.Address = &address.String
	}

	crops, err := getCrops(ctx, q, user.ID)
	if err != nil {
		return nil, err
	}
	user.SelectedCrops = crops

	return user, nil
}

func getCrops(ctx context.Context, q dbtx, userID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT crop_name FROM user_crops WHERE user_id = ? ORDER BY crop_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crops: %w", err)
	}
	defer rows.Close()

	crops := []string{}
	for rows.Next() {
		var crop string
		if err := rows.Scan(&crop); err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		crops = append(crops, crop)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crops: %w", err)
	}

	return crops, nil
}

func insertCrops(ctx context.Context, tx dbtx, userID int64, crops []string) error {
	for _, crop := range crops {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_crops (user_id, crop_name) VALUES (?, ?)`, userID, crop); err != nil {
			return fmt.Errorf("failed to insert crop %q: %w", crop, err)
		}
	}
	return nil
}

// isPhoneConflict определяет нарушение уникальности users.phone_number
func isPhoneConflict(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return false
	}
	return strings.Contains(sqliteErr.Error(), "users.phone_number")
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
