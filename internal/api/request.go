// Package api implements the method-call request schemas, authentication and
// dispatch for the scoring service.
package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/R3E-Network/scoring_service/internal/validate"
)

// Field declares one schema field: its wire name, presence rules and the
// validation rule applied to supplied values.
type Field struct {
	Name     string
	Required bool
	Nullable bool
	Validate validate.Func
}

// Errors accumulates validation failures keyed by field name, preserving the
// order in which fields failed.
type Errors struct {
	byField map[string]string
	order   []string
}

// Add records a failure for a field. A repeated field overwrites its message
// without changing its position.
func (e *Errors) Add(field, message string) {
	if e.byField == nil {
		e.byField = make(map[string]string)
	}
	if _, seen := e.byField[field]; !seen {
		e.order = append(e.order, field)
	}
	e.byField[field] = message
}

// Empty reports whether no failures were recorded.
func (e *Errors) Empty() bool { return len(e.byField) == 0 }

// Len returns the number of failing fields.
func (e *Errors) Len() int { return len(e.byField) }

// Field returns the message recorded for a field.
func (e *Errors) Field(name string) (string, bool) {
	msg, ok := e.byField[name]
	return msg, ok
}

// First returns the first failing field and its message.
func (e *Errors) First() (string, string) {
	if len(e.order) == 0 {
		return "", ""
	}
	name := e.order[0]
	return name, e.byField[name]
}

// validateFields walks the declared fields against the raw payload, applying
// the presence, nullability and value rules. Validated values are handed to
// assign; failures land in the returned error set. Every field is visited
// even when earlier ones failed.
func validateFields(raw map[string]interface{}, fields []Field, assign func(name string, value interface{})) *Errors {
	errs := &Errors{}
	for _, field := range fields {
		value, present := raw[field.Name]
		if !present {
			if field.Required {
				errs.Add(field.Name, "this field is required")
			}
			continue
		}
		if value == nil {
			if !field.Nullable {
				errs.Add(field.Name, "this field cannot be null")
			}
			continue
		}
		if err := field.Validate(value); err != nil {
			errs.Add(field.Name, err.Error())
			continue
		}
		assign(field.Name, value)
	}
	return errs
}

// MethodRequest is the outer method-call envelope.
type MethodRequest struct {
	Account   *string
	Login     *string
	Token     *string
	Arguments map[string]interface{}
	Method    *string

	errs *Errors
}

func methodRequestFields() []Field {
	return []Field{
		{Name: "account", Required: false, Nullable: true, Validate: validate.String},
		{Name: "login", Required: true, Nullable: true, Validate: validate.String},
		{Name: "token", Required: true, Nullable: true, Validate: validate.String},
		{Name: "arguments", Required: true, Nullable: true, Validate: validate.Arguments},
		{Name: "method", Required: true, Nullable: false, Validate: validate.String},
	}
}

// NewMethodRequest validates the raw envelope and populates the typed slots
// for every field that passed.
func NewMethodRequest(raw map[string]interface{}) *MethodRequest {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	r := &MethodRequest{}
	r.errs = validateFields(raw, methodRequestFields(), func(name string, value interface{}) {
		switch name {
		case "account":
			r.Account = strSlot(value)
		case "login":
			r.Login = strSlot(value)
		case "token":
			r.Token = strSlot(value)
		case "arguments":
			r.Arguments = value.(map[string]interface{})
		case "method":
			r.Method = strSlot(value)
		}
	})
	return r
}

// IsValid reports whether the envelope passed validation.
func (r *MethodRequest) IsValid() bool { return r.errs.Empty() }

// Errors exposes the validation error set.
func (r *MethodRequest) Errors() *Errors { return r.errs }

// IsAdmin reports whether the caller authenticates through the admin path.
func (r *MethodRequest) IsAdmin() bool {
	return r.Login != nil && *r.Login == adminLogin
}

// OnlineScoreRequest holds the validated arguments of the online_score
// method. Each slot is populated only when the field was present, non-null
// and valid.
type OnlineScoreRequest struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthday  *time.Time
	Gender    *int

	errs *Errors
}

func onlineScoreFields() []Field {
	return []Field{
		{Name: "first_name", Nullable: true, Validate: validate.String},
		{Name: "last_name", Nullable: true, Validate: validate.String},
		{Name: "email", Nullable: true, Validate: validate.Email},
		{Name: "phone", Nullable: true, Validate: validate.Phone},
		{Name: "birthday", Nullable: true, Validate: validate.Birthday},
		{Name: "gender", Nullable: true, Validate: validate.Gender},
	}
}

// NewOnlineScoreRequest validates online_score arguments, including the
// cross-field pair rule.
func NewOnlineScoreRequest(raw map[string]interface{}) *OnlineScoreRequest {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	r := &OnlineScoreRequest{}
	r.errs = validateFields(raw, onlineScoreFields(), func(name string, value interface{}) {
		switch name {
		case "first_name":
			r.FirstName = strSlot(value)
		case "last_name":
			r.LastName = strSlot(value)
		case "email":
			r.Email = strSlot(value)
		case "phone":
			phone := formatWirePhone(value)
			r.Phone = &phone
		case "birthday":
			parsed, _ := time.Parse(validate.DateFormat, value.(string))
			r.Birthday = &parsed
		case "gender":
			n, _ := validate.IntValue(value)
			gender := int(n)
			r.Gender = &gender
		}
	})
	if r.errs.Empty() {
		r.postValidate()
	}
	return r
}

// postValidate enforces that at least one complete pair of identifying
// fields was supplied.
func (r *OnlineScoreRequest) postValidate() {
	phoneEmail := r.Phone != nil && r.Email != nil
	fullName := r.FirstName != nil && r.LastName != nil
	birthdayGender := r.Birthday != nil && r.Gender != nil
	if !phoneEmail && !fullName && !birthdayGender {
		r.errs.Add("arguments", "at least one pair is required: (phone, email), (first_name, last_name) or (birthday, gender)")
	}
}

// IsValid reports whether the arguments passed validation.
func (r *OnlineScoreRequest) IsValid() bool { return r.errs.Empty() }

// Errors exposes the validation error set.
func (r *OnlineScoreRequest) Errors() *Errors { return r.errs }

// NonEmptyFields lists the supplied fields, in declaration order, whose
// values are meaningful (non-nil slots, non-empty strings).
func (r *OnlineScoreRequest) NonEmptyFields() []string {
	fields := []string{}
	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}
	add("first_name", r.FirstName != nil && *r.FirstName != "")
	add("last_name", r.LastName != nil && *r.LastName != "")
	add("email", r.Email != nil && *r.Email != "")
	add("phone", r.Phone != nil && *r.Phone != "")
	add("birthday", r.Birthday != nil)
	add("gender", r.Gender != nil)
	return fields
}

// ClientsInterestsRequest holds the validated arguments of the
// clients_interests method.
type ClientsInterestsRequest struct {
	ClientIDs []int64
	Date      *time.Time

	errs *Errors
}

func clientsInterestsFields() []Field {
	return []Field{
		{Name: "client_ids", Required: true, Nullable: false, Validate: validate.ClientIDs},
		{Name: "date", Nullable: true, Validate: validate.Date},
	}
}

// NewClientsInterestsRequest validates clients_interests arguments.
func NewClientsInterestsRequest(raw map[string]interface{}) *ClientsInterestsRequest {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	r := &ClientsInterestsRequest{}
	r.errs = validateFields(raw, clientsInterestsFields(), func(name string, value interface{}) {
		switch name {
		case "client_ids":
			items := value.([]interface{})
			ids := make([]int64, 0, len(items))
			for _, item := range items {
				id, _ := validate.IntValue(item)
				ids = append(ids, id)
			}
			r.ClientIDs = ids
		case "date":
			parsed, _ := time.Parse(validate.DateFormat, value.(string))
			r.Date = &parsed
		}
	})
	return r
}

// IsValid reports whether the arguments passed validation.
func (r *ClientsInterestsRequest) IsValid() bool { return r.errs.Empty() }

// Errors exposes the validation error set.
func (r *ClientsInterestsRequest) Errors() *Errors { return r.errs }

func strSlot(value interface{}) *string {
	s := value.(string)
	return &s
}

// formatWirePhone renders a validated phone value, which may arrive as a
// string or any integer shape the validator accepts, as its digit string.
func formatWirePhone(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	if n, ok := validate.IntValue(value); ok {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%v", value)
}
