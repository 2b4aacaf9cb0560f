package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"yamdb/internal/microservices/http-api/models"
)

const (
	msgRequired        = "This field is required."
	msgReservedName    = `Username must be not "me"`
	msgUsernameTaken   = "User already exist"
	msgEmailTaken      = "Email already exists!"
	msgInvalidUsername = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgInvalidSlug     = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	msgNotReleased     = "The title has not been released yet."
	msgScoreRange      = "Ensure this value is between 1 and 10."

	MaxUsernameLength    = 150
	MaxEmailLength       = 254
	MaxSignupEmailLength = 150
	MinScore             = 1
	MaxScore             = 10

	// ReservedUsername is the path segment used by the self-service endpoint
	ReservedUsername = "me"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// ValidUsername reports whether s has only letters, digits and @/./+/-/_
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

func validateUsername(v *ValidationError, username string) {
	switch {
	case username == "":
		v.Add("username", msgRequired)
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		v.Add("username", msgMaxLength(MaxUsernameLength))
	case !ValidUsername(username):
		v.Add("username", msgInvalidUsername)
	case username == ReservedUsername:
		v.Add("username", msgReservedName)
	}
}

func validateEmail(v *ValidationError, email string, max int) {
	switch {
	case email == "":
		v.Add("email", msgRequired)
	case utf8.RuneCountInString(email) > max:
		v.Add("email", msgMaxLength(max))
	}
}

func validateMaxLength(v *ValidationError, field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.Add(field, msgMaxLength(max))
	}
}

func validateYear(v *ValidationError, year int, now time.Time) {
	if !models.Released(year, now) {
		v.Add("year", msgNotReleased)
	}
}

func validateScore(v *ValidationError, score int) {
	if score < MinScore || score > MaxScore {
		v.Add("score", msgScoreRange)
	}
}

// FieldMessage renders a failed binding rule the same way the service layer words
// its own checks.
func FieldMessage(tag, param string) string {
	switch tag {
	case "required":
		return msgRequired
	case "max":
		if n, err := strconv.Atoi(param); err == nil {
			return msgMaxLength(n)
		}
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", param)
	case "email":
		return "Enter a valid email address."
	case "username":
		return msgInvalidUsername
	case "slug":
		return msgInvalidSlug
	}
	return "Invalid value."
}
