package validate

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	if err := String("hello"); err != nil {
		t.Fatalf("string value rejected: %v", err)
	}
	for _, value := range []interface{}{1.0, true, nil, []interface{}{}, map[string]interface{}{}} {
		if err := String(value); err == nil {
			t.Fatalf("expected error for %#v", value)
		}
	}
}

func TestArguments(t *testing.T) {
	if err := Arguments(map[string]interface{}{"a": 1.0}); err != nil {
		t.Fatalf("object rejected: %v", err)
	}
	for _, value := range []interface{}{"{}", 1.0, []interface{}{1.0}, nil} {
		if err := Arguments(value); err == nil {
			t.Fatalf("expected error for %#v", value)
		}
	}
}

func TestEmail(t *testing.T) {
	cases := []struct {
		value interface{}
		valid bool
	}{
		{"a@b", true},
		{"stupnikov@otus.ru", true},
		{"a@", false},
		{"@b", false},
		{"ab", false},
		{"a@b@c", false},
		{123.0, false},
	}
	for _, tc := range cases {
		err := Email(tc.value)
		if tc.valid && err != nil {
			t.Errorf("Email(%v) unexpected error: %v", tc.value, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Email(%v) expected error", tc.value)
		}
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		value interface{}
		valid bool
	}{
		{"79161234567", true},
		{float64(79161234567), true},
		{"89161234567", false},
		{"7916123456", false},
		{"791612345678", false},
		{float64(8916123456.7), false},
		{true, false},
		{nil, false},
	}
	for _, tc := range cases {
		err := Phone(tc.value)
		if tc.valid && err != nil {
			t.Errorf("Phone(%v) unexpected error: %v", tc.value, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Phone(%v) expected error", tc.value)
		}
	}
}

func TestDate(t *testing.T) {
	if err := Date("20.07.2017"); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	for _, value := range []interface{}{"2017-07-20", "32.01.2017", "XXX", 20072017.0} {
		if err := Date(value); err == nil {
			t.Fatalf("expected error for %#v", value)
		}
	}
}

func TestBirthdayAgeBound(t *testing.T) {
	fixed := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	restore := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = restore }()

	cases := []struct {
		value string
		valid bool
	}{
		{fixed.AddDate(-69, 0, 0).Format(DateFormat), true},                 // exactly 69 years
		{fixed.AddDate(-70, 0, 0).AddDate(0, 0, 1).Format(DateFormat), true}, // one day short of 70
		{fixed.AddDate(-70, 0, 0).Format(DateFormat), false},                // exactly 70 years
		{fixed.AddDate(-70, 0, -1).Format(DateFormat), false},               // 70 years and a day
	}
	for _, tc := range cases {
		err := Birthday(tc.value)
		if tc.valid && err != nil {
			t.Errorf("Birthday(%s) unexpected error: %v", tc.value, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Birthday(%s) expected error", tc.value)
		}
	}
}

func TestGender(t *testing.T) {
	for _, code := range []float64{0, 1, 2} {
		if err := Gender(code); err != nil {
			t.Errorf("Gender(%v) unexpected error: %v", code, err)
		}
	}
	for _, value := range []interface{}{3.0, -1.0, 1.5, "1", nil, true} {
		if err := Gender(value); err == nil {
			t.Errorf("Gender(%v) expected error", value)
		}
	}
}

func TestClientIDs(t *testing.T) {
	if err := ClientIDs([]interface{}{1.0, 2.0, 3.0}); err != nil {
		t.Fatalf("valid list rejected: %v", err)
	}
	for _, value := range []interface{}{
		[]interface{}{},
		[]interface{}{1.0, "2"},
		[]interface{}{1.5},
		map[string]interface{}{},
		"1,2",
		nil,
	} {
		if err := ClientIDs(value); err == nil {
			t.Fatalf("expected error for %#v", value)
		}
	}
}
