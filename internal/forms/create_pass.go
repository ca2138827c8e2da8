// Package forms validates operator input before anything is sent to the partnerships service.
package forms

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/charlesng35/sponsorpass/internal/models"
	appValidator "github.com/charlesng35/sponsorpass/pkg/validator"
)

const (
	maxNameLength = 100
	dateTimeTag   = "datetime_any"
)

// dateTimeLayouts are tried in order; the date-only and minute precision forms match what a
// datetime-local input submits.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var messages = map[string]map[string]string{
	"firstName": {"required": "First name is required", "max": "First name is too long"},
	"lastName":  {"required": "Last name is required", "max": "Last name is too long"},
	"email":     {"required": "Email is required", "email": "Please enter a valid email address"},
	"expiresAt": {dateTimeTag: "Please enter a valid date"},
}

func init() {
	if err := appValidator.RegisterValidation(dateTimeTag, func(fl validator.FieldLevel) bool {
		_, err := ParseDateTime(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
}

// CreatePassForm is the raw input of the create pass dialog.
type CreatePassForm struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	ExpiresAt string `json:"expiresAt" validate:"omitempty,datetime_any"`
}

// FieldError is the first validation failure reported for a field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists one FieldError per invalid field, in form order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return strings.Join(parts, "; ")
}

// ByField maps each invalid field to its message.
func (e *ValidationError) ByField() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

// Normalize trims surrounding whitespace from every field.
func (f CreatePassForm) Normalize() CreatePassForm {
	return CreatePassForm{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		ExpiresAt: strings.TrimSpace(f.ExpiresAt),
	}
}

// Validate checks the normalised form. It returns *ValidationError when any field is invalid.
func (f CreatePassForm) Validate() error {
	err := appValidator.ValidateStruct(f.Normalize())
	if err == nil {
		return nil
	}

	failures, ok := err.(appValidator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{}
	for _, failure := range failures.FirstPerField() {
		out.Fields = append(out.Fields, FieldError{
			Field:   failure.Field,
			Rule:    failure.Tag,
			Message: messageFor(failure.Field, failure.Tag),
		})
	}
	return out
}

// ToRequest validates the form and builds the create request for sponsorID. An empty expiry is
// omitted; any other expiry is sent in UTC.
func (f CreatePassForm) ToRequest(sponsorID int64) (models.CreateSponsorPassRequest, error) {
	if err := f.Validate(); err != nil {
		return models.CreateSponsorPassRequest{}, err
	}

	n := f.Normalize()
	req := models.CreateSponsorPassRequest{
		Sponsor:   sponsorID,
		FirstName: n.FirstName,
		LastName:  n.LastName,
		Email:     n.Email,
	}
	if n.ExpiresAt != "" {
		ts, err := ParseDateTime(n.ExpiresAt)
		if err != nil {
			return models.CreateSponsorPassRequest{}, err
		}
		utc := ts.UTC()
		req.ExpiresAt = &utc
	}
	return req, nil
}

// ParseDateTime parses the date-time formats accepted for a pass expiry. Values without a zone
// are read in the local time zone.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateTimeLayouts {
		ts, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func messageFor(field, rule string) string {
	if byRule, ok := messages[field]; ok {
		if msg, ok := byRule[rule]; ok {
			return msg
		}
	}
	return field + " is invalid"
}
