// Package person provides the Person registry.
package person

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/types"
)

var (
	nameRE  = regexp.MustCompile(`^[A-Za-z\s\-]+$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// MaxNameLength is the column width of first_name and last_name.
const MaxNameLength = 50

// AdultAge is the age at which a person counts as an adult.
const AdultAge = 18

// Gender is the enumerated gender of a person.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Genders lists the accepted values in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// IsValid reports whether g is one of Genders.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Person is an individual tracked by the registry.
type Person struct {
	entity.BaseEntity
	entity.Owned

	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	BirthDate time.Time `db:"birth_date"`
	Gender    Gender    `db:"gender"`
}

// Validate implements entity.Validatable. It covers every rule that does not
// depend on the current day; the service checks the birth date against its
// clock through ValidateBirthDate.
func (p *Person) Validate(_ context.Context) error {
	if err := ValidateName("first_name", p.FirstName); err != nil {
		return err
	}
	if err := ValidateName("last_name", p.LastName); err != nil {
		return err
	}
	if !emailRE.MatchString(p.Email) {
		return apperror.NewFieldValidation("email", "Enter a valid email address.")
	}
	if p.BirthDate.IsZero() {
		return apperror.NewFieldValidation("birth_date", "birth date is required")
	}
	if !p.Gender.IsValid() {
		return apperror.NewFieldValidation("gender",
			fmt.Sprintf("%s is not a valid gender. Choose from MALE, FEMALE, OTHER.", p.Gender))
	}
	return p.CheckInvariant()
}

// ValidateAt checks the record as of today.
func (p *Person) ValidateAt(today time.Time) error {
	if err := p.Validate(context.Background()); err != nil {
		return err
	}
	return p.ValidateBirthDate(today)
}

// ValidateBirthDate rejects a birth date after today.
func (p *Person) ValidateBirthDate(today time.Time) error {
	if types.DateOf(p.BirthDate).After(types.DateOf(today)) {
		return apperror.NewFieldValidation("birth_date", "birth date cannot be in the future")
	}
	return nil
}

// ValidateName checks the alphabet and length of a name part.
func ValidateName(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperror.NewFieldValidation(field, "this field is required")
	}
	if utf8.RuneCountInString(v) > MaxNameLength {
		return apperror.NewFieldValidation(field, "must be at most 50 characters")
	}
	if !nameRE.MatchString(v) {
		return apperror.NewFieldValidation(field, "Name must contain only letters, spaces, and hyphens.")
	}
	return nil
}

// IsValidName reports whether v is an acceptable name part.
func IsValidName(v string) bool {
	return v != "" && utf8.RuneCountInString(v) <= MaxNameLength && nameRE.MatchString(v)
}

// FullName joins first and last name.
func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age returns completed years at today.
func (p *Person) Age(today time.Time) int {
	return types.YearsBetween(p.BirthDate, today)
}

// IsAdult reports whether the person is at least 18 at today.
func (p *Person) IsAdult(today time.Time) bool {
	return p.Age(today) >= AdultAge
}

// ZodiacSign returns the tropical sign of the birth date.
func (p *Person) ZodiacSign() string {
	return ZodiacSign(p.BirthDate.Month(), p.BirthDate.Day())
}

type zodiacStart struct {
	month time.Month
	day   int
	sign  string
}

// Signs in calendar order of their first day.
var zodiacTable = []zodiacStart{
	{time.January, 20, "Aquarius"},
	{time.February, 19, "Pisces"},
	{time.March, 21, "Aries"},
	{time.April, 20, "Taurus"},
	{time.May, 21, "Gemini"},
	{time.June, 21, "Cancer"},
	{time.July, 23, "Leo"},
	{time.August, 23, "Virgo"},
	{time.September, 23, "Libra"},
	{time.October, 23, "Scorpio"},
	{time.November, 22, "Sagittarius"},
	{time.December, 22, "Capricorn"},
}

// ZodiacSign maps a birthday to its sign.
func ZodiacSign(month time.Month, day int) string {
	sign := "Capricorn"
	for _, z := range zodiacTable {
		if month > z.month || (month == z.month && day >= z.day) {
			sign = z.sign
		}
	}
	return sign
}
