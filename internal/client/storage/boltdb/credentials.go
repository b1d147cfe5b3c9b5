package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/agroprofile/internal/client/storage"
)

var _ storage.CredentialStore = (*Storage)(nil)

// Get returns the value stored under key
func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	if !storage.ValidKey(key) {
		return "", fmt.Errorf("%w: %q", storage.ErrUnknownKey, key)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrKeyNotFound
		}

		// data валиден только внутри транзакции, string() копирует
		value = string(data)
		return nil
	})
	if err != nil {
		return "", mapClosed(err)
	}

	return value, nil
}

// Set stores value under key
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if !storage.ValidKey(key) {
		return fmt.Errorf("%w: %q", storage.ErrUnknownKey, key)
	}
	// Отмененная операция ничего не пишет
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		return nil
	})
	return mapClosed(err)
}

// SetAll stores all pairs in one bbolt transaction
func (s *Storage) SetAll(ctx context.Context, values map[string]string) error {
	for key := range values {
		if !storage.ValidKey(key) {
			return fmt.Errorf("%w: %q", storage.ErrUnknownKey, key)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		for key, value := range values {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				return fmt.Errorf("failed to save %s: %w", key, err)
			}
		}
		return nil
	})
	return mapClosed(err)
}

// Remove deletes key; absent keys are ignored
func (s *Storage) Remove(ctx context.Context, key string) error {
	return s.RemoveAll(ctx, key)
}

// RemoveAll deletes all given keys in one bbolt transaction
func (s *Storage) RemoveAll(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if !storage.ValidKey(key) {
			return fmt.Errorf("%w: %q", storage.ErrUnknownKey, key)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
		return nil
	})
	return mapClosed(err)
}
