// Package validate provides the field validation rules used by the request
// schemas. Each rule is a pure function over a decoded JSON value; rules are
// composed rather than layered through type hierarchies.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateFormat is the wire format for date fields (dd.mm.yyyy).
const DateFormat = "02.01.2006"

// MaxAgeYears bounds the birthday field: the subject must be strictly younger
// than this many years.
const MaxAgeYears = 70

// Gender codes accepted by the gender field.
const (
	GenderUnknown = 0
	GenderMale    = 1
	GenderFemale  = 2
)

// timeNow is overridable in tests that pin the clock.
var timeNow = time.Now

// Func is a single-value validation rule. A nil return means the value is
// acceptable.
type Func func(value interface{}) error

// String requires a string value.
func String(value interface{}) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("value must be a string")
	}
	return nil
}

// Arguments requires a JSON object value.
func Arguments(value interface{}) error {
	if _, ok := value.(map[string]interface{}); !ok {
		return fmt.Errorf("value must be an object")
	}
	return nil
}

// Email requires a string of the form localpart@domainpart with both parts
// non-empty.
func Email(value interface{}) error {
	if err := String(value); err != nil {
		return err
	}
	parts := strings.Split(value.(string), "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("email must be in the format 'localpart@domainpart'")
	}
	return nil
}

// Phone requires a string or integer whose string form is exactly 11
// characters long and starts with 7.
func Phone(value interface{}) error {
	var phone string
	switch v := value.(type) {
	case string:
		phone = v
	default:
		n, ok := IntValue(value)
		if !ok {
			return fmt.Errorf("phone must be a string or an integer")
		}
		phone = fmt.Sprintf("%d", n)
	}
	if len(phone) != 11 {
		return fmt.Errorf("phone must contain exactly 11 digits")
	}
	if phone[0] != '7' {
		return fmt.Errorf("phone must start with digit 7")
	}
	return nil
}

// Date requires a string parseable as dd.mm.yyyy.
func Date(value interface{}) error {
	if err := String(value); err != nil {
		return fmt.Errorf("date must be a string")
	}
	if _, err := time.Parse(DateFormat, value.(string)); err != nil {
		return fmt.Errorf("date must be in the format 'dd.mm.yyyy'")
	}
	return nil
}

// Birthday requires a valid date strictly less than MaxAgeYears years in the
// past, measured by calendar arithmetic.
func Birthday(value interface{}) error {
	if err := Date(value); err != nil {
		return err
	}
	birthday, _ := time.Parse(DateFormat, value.(string))
	cutoff := timeNow().AddDate(-MaxAgeYears, 0, 0)
	if !birthday.After(truncateDay(cutoff)) {
		return fmt.Errorf("age must be less than %d years", MaxAgeYears)
	}
	return nil
}

// Gender requires one of the enumerated integer codes.
func Gender(value interface{}) error {
	n, ok := IntValue(value)
	if !ok {
		return fmt.Errorf("gender must be an integer")
	}
	switch n {
	case GenderUnknown, GenderMale, GenderFemale:
		return nil
	}
	return fmt.Errorf("gender must be one of %d (unknown), %d (male) or %d (female)",
		GenderUnknown, GenderMale, GenderFemale)
}

// ClientIDs requires a non-empty array of integers.
func ClientIDs(value interface{}) error {
	items, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("client ids must be a list")
	}
	if len(items) == 0 {
		return fmt.Errorf("client ids list cannot be empty")
	}
	for _, item := range items {
		if _, ok := IntValue(item); !ok {
			return fmt.Errorf("all client ids must be integers")
		}
	}
	return nil
}

// IntValue extracts an integer from a decoded JSON value. JSON numbers decode
// as float64; only integral values qualify. Plain int and int64 values are
// accepted so callers are not tied to one decoder configuration.
func IntValue(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
