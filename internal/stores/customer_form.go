package stores

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names a customer form input. The values double as error map keys.
type Field string

const (
	FieldFirstName  Field = "firstName"
	FieldLastName   Field = "lastName"
	FieldRouteID    Field = "routeId"
	FieldRate       Field = "rate"
	FieldPhone      Field = "phone"
	FieldEmail      Field = "email"
	FieldSequenceNo Field = "sequenceNo"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// CustomerForm holds the raw text of every input
type CustomerForm struct {
	FirstName  string
	LastName   string
	RouteID    string
	Rate       string
	Phone      string
	Email      string
	SequenceNo string
}

func (f *CustomerForm) set(field Field, value string) bool {
	switch field {
	case FieldFirstName:
		f.FirstName = value
	case FieldLastName:
		f.LastName = value
	case FieldRouteID:
		f.RouteID = value
	case FieldRate:
		f.Rate = value
	case FieldPhone:
		f.Phone = value
	case FieldEmail:
		f.Email = value
	case FieldSequenceNo:
		f.SequenceNo = value
	default:
		return false
	}
	return true
}

// formMessages are the texts each form shows for a failed rule
type formMessages struct {
	firstName    string
	lastName     string
	routeID      string
	rateMissing  string
	rateInvalid  string
	phoneMissing string
	phoneInvalid string
	email        string
}

var addMessages = formMessages{
	firstName:    "First name is required",
	lastName:     "Last name is required",
	routeID:      "Please select a route",
	rateMissing:  "Rate is required",
	rateInvalid:  "Enter a valid rate",
	phoneMissing: "Phone number is required",
	phoneInvalid: "Enter a valid 10-digit phone number",
	email:        "Enter a valid email address",
}

var editMessages = formMessages{
	firstName:    "First name is required",
	lastName:     "Last name is required",
	routeID:      "Route is required",
	rateMissing:  "Valid rate is required",
	rateInvalid:  "Valid rate is required",
	phoneMissing: "Valid 10-digit phone number is required",
	phoneInvalid: "Valid 10-digit phone number is required",
	email:        "Invalid email address",
}

// validate checks every field independently and returns the failures keyed
// by field
func (f CustomerForm) validate(msg formMessages) map[Field]string {
	errs := map[Field]string{}

	if strings.TrimSpace(f.FirstName) == "" {
		errs[FieldFirstName] = msg.firstName
	}
	if strings.TrimSpace(f.LastName) == "" {
		errs[FieldLastName] = msg.lastName
	}
	if f.RouteID == "" {
		errs[FieldRouteID] = msg.routeID
	}
	if strings.TrimSpace(f.Rate) == "" {
		errs[FieldRate] = msg.rateMissing
	} else if _, ok := parseRate(f.Rate); !ok {
		errs[FieldRate] = msg.rateInvalid
	}
	phone := strings.TrimSpace(f.Phone)
	if phone == "" {
		errs[FieldPhone] = msg.phoneMissing
	} else if !phonePattern.MatchString(phone) {
		errs[FieldPhone] = msg.phoneInvalid
	}
	if email := strings.TrimSpace(f.Email); email != "" && !emailPattern.MatchString(email) {
		errs[FieldEmail] = msg.email
	}
	return errs
}

// parseRate accepts any number greater than zero
func parseRate(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// parseSequence returns nil for a blank or non-numeric sequence number
func parseSequence(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func cloneErrors(in map[Field]string) map[Field]string {
	out := make(map[Field]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
