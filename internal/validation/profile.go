package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PhonePattern определяет допустимый формат номера телефона:
// необязательный "+" и от 5 до 15 цифр (E.164 без разделителей)
var PhonePattern = regexp.MustCompile(`^\+?[0-9]{5,15}$`)

const (
	// MaxFullNameLen максимальная длина имени в символах
	MaxFullNameLen = 100
	// MaxPasswordLen максимальная длина пароля в байтах (ограничение bcrypt)
	MaxPasswordLen = 72
	// MinAge минимальный допустимый возраст
	MinAge = 0
	// MaxAge максимальный допустимый возраст
	MaxAge = 150
	// MaxCropNameLen максимальная длина названия культуры
	MaxCropNameLen = 64
)

// ValidatePhoneNumber проверяет формат номера телефона
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number cannot be empty")
	}

	if !PhonePattern.MatchString(phone) {
		return fmt.Errorf("phone number must contain 5-15 digits with an optional leading '+'")
	}

	return nil
}

// ValidatePassword проверяет пароль. Минимальной длины нет, но bcrypt
// не принимает пароли длиннее 72 байт.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}

	return nil
}

// ValidateFullName проверяет имя пользователя
func ValidateFullName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("full name cannot be empty")
	}

	if utf8.RuneCountInString(trimmed) > MaxFullNameLen {
		return fmt.Errorf("full name must not exceed %d characters", MaxFullNameLen)
	}

	return nil
}

// ValidateAge проверяет диапазон возраста
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return fmt.Errorf("age must be between %d and %d", MinAge, MaxAge)
	}
	return nil
}

// ParseAge разбирает возраст, введенный пользователем строкой.
// Пустая строка означает "не указан" и возвращает nil без ошибки.
func ParseAge(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	age, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("age must be a whole number, got %q", raw)
	}

	if err := ValidateAge(age); err != nil {
		return nil, err
	}

	return &age, nil
}

// NormalizeCrops приводит список культур к множеству: обрезает пробелы,
// выкидывает пустые значения и дубли, сортирует.
// Для nil возвращает nil, для пустого списка - пустой (не nil) список.
func NormalizeCrops(crops []string) ([]string, error) {
	if crops == nil {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(crops))
	result := make([]string, 0, len(crops))
	for _, crop := range crops {
		crop = strings.TrimSpace(crop)
		if crop == "" {
			continue
		}
		if utf8.RuneCountInString(crop) > MaxCropNameLen {
			return nil, fmt.Errorf("crop name %q must not exceed %d characters", crop, MaxCropNameLen)
		}
		if _, ok := seen[crop]; ok {
			continue
		}
		seen[crop] = struct{}{}
		result = append(result, crop)
	}

	sort.Strings(result)
	return result, nil
}

// SplitCrops разбирает список культур, введенный через запятую
func SplitCrops(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}
