// README: Passenger profile record and input validation.
package profile

import (
	"errors"
	"time"

	"ridesafe/internal/types"
)

var ErrNotFound = errors.New("profile not found")

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// ParseGender maps the menu choice "1" or "2" to a gender.
func ParseGender(choice string) (Gender, bool) {
	switch choice {
	case "1":
		return GenderMale, true
	case "2":
		return GenderFemale, true
	default:
		return "", false
	}
}

type Profile struct {
	Phone     types.Phone
	Token     string
	Gender    Gender
	Zip       string
	CreatedAt time.Time
}

// ValidToken reports whether s is a profile token: exactly 4 decimal digits.
func ValidToken(s string) bool { return digits(s, 4) }

// ValidZip reports whether s is exactly 5 decimal digits.
func ValidZip(s string) bool { return digits(s, 5) }

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
