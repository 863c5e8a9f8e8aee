// Package validation wraps go-playground/validator with field names and
// messages matching what the dashboard renders under each input.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hongminglow/pw-ledger/internal/apperr"
)

var (
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

	once     sync.Once
	instance *validator.Validate
)

// fieldLabels holds the Indonesian display label per JSON field.
var fieldLabels = map[string]string{
	"name":     "Nama",
	"phone":    "Nomor telepon",
	"address":  "Alamat",
	"username": "Username",
	"email":    "Email",
	"password": "Password",
	"role":     "Role",
	"userid":   "User",
	"amount":   "Jumlah",
	"date":     "Tanggal",
	"paidat":   "Tanggal pembayaran",
	"note":     "Catatan",
}

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns an *apperr.Error of kind Validation when it fails.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := strings.ToLower(fe.Field())
		fields[key] = append(fields[key], message(key, fe))
	}
	return apperr.ValidationFields(fields)
}

func message(field string, fe validator.FieldError) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " wajib diisi"
	case "email":
		return "Format email tidak valid"
	case "phone":
		return "Format nomor telepon tidak valid"
	case "username":
		return "Username hanya boleh berisi huruf, angka, titik, dan garis bawah"
	case "uuid":
		return label + " tidak valid"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s minimal %s karakter", label, fe.Param())
		}
		return fmt.Sprintf("%s minimal %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s maksimal %s karakter", label, fe.Param())
		}
		return fmt.Sprintf("%s maksimal %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s harus salah satu dari: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " tidak valid"
	}
}
