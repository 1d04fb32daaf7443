package ingest

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// KindForTag translates validator tag names into the report vocabulary.
// The enumeration is closed: anything unrecognized is a generic
// validation error.
func KindForTag(tag string) Kind {
	switch tag {
	case "required":
		return KindInvalidType
	case "min", "gte", "gt":
		return KindTooSmall
	case "max", "lte", "lt":
		return KindTooBig
	case "url", "uri", "phone", "e164", "email":
		return KindInvalidFormat
	default:
		return KindValidation
	}
}

// EntryForFieldError builds a per-row entry out of one validator issue.
// field is the report-facing field name, which may differ from the
// struct field.
func EntryForFieldError(row int, field string, fe validator.FieldError) Entry {
	return Entry{
		Row:     row,
		Field:   field,
		Kind:    KindForTag(fe.Tag()),
		Message: Sanitize(messageForFieldError(field, fe)),
	}
}

func messageForFieldError(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s is shorter than the minimum length %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s is longer than the maximum length %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid absolute URL", field)
	case "phone":
		return fmt.Sprintf("%s must normalize to 1-15 digits with an optional leading +", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// GuardValidation runs fn, converting a panic into a sanitized generic
// validation entry so one pathological row can never abort the batch.
func GuardValidation(row int, fn func() *Entry) (entry *Entry) {
	defer func() {
		if r := recover(); r != nil {
			entry = &Entry{
				Row:     row,
				Kind:    KindValidation,
				Message: Sanitize(fmt.Sprintf("validation failed: %v", r)),
			}
		}
	}()
	return fn()
}
