package app

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"commandx/internal/core"
)

// ValidationError reports request fields that failed validation, keyed by
// JSON field name. It unwraps to core.ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return core.ErrInvalidInput }

func invalidField(field, reason string) error {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func newValidator(phoneRegion string) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, err := NormalizePhone(fl.Field().String(), phoneRegion)
		return err == nil
	})
	return v
}

// processValidationErrors flattens validator output into field -> failed rule.
func processValidationErrors(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		if fe.Param() != "" {
			fields[key] = fe.Tag() + "=" + fe.Param()
		} else {
			fields[key] = fe.Tag()
		}
	}
	return &ValidationError{Fields: fields}
}

// NormalizePhone parses a phone number, using region for numbers without a
// country prefix, and returns it in E.164 form.
func NormalizePhone(raw, region string) (string, error) {
	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number %q is not valid", raw)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

func parseDate(field, s string) (time.Time, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, invalidField(field, "datetime=2006-01-02")
	}
	return d, nil
}

func parseOptDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptDatePtr(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	return parseOptDate(field, *s)
}

// parseStatus validates a status for kind. An empty string is the empty status.
func parseStatus(kind core.DocumentKind, s string) (core.Status, error) {
	if s == "" {
		return "", nil
	}
	st, err := core.ParseStatus(kind, s)
	if err != nil {
		names := make([]string, 0, 8)
		for _, allowed := range core.Statuses(kind) {
			names = append(names, string(allowed))
		}
		return "", invalidField("status", "oneof="+strings.Join(names, " "))
	}
	return st, nil
}

func toLineItems(in []LineInput) []core.LineItem {
	lines := make([]core.LineItem, len(in))
	for i, l := range in {
		lines[i] = core.LineItem{
			LineNumber:    i + 1,
			Description:   l.Description,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			UnitCost:      l.UnitCost,
			MarkupPercent: l.MarkupPercent,
		}
	}
	return lines
}
