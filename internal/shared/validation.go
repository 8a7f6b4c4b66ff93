package shared

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PlaylistNameMinLength = 2
	PlaylistNameMaxLength = 100
)

// User-facing validation messages.
const (
	MsgEmailRequired        = "Email is required"
	MsgEmailInvalid         = "Invalid email address"
	MsgPasswordRequired     = "Password is required"
	MsgPlaylistNameRequired = "Playlist name is required"
	MsgPlaylistNameTooShort = "Name must be at least 2 characters"
	MsgPlaylistNameTooLong  = "Name must be at most 100 characters"
	MsgPlaylistNameTaken    = "A playlist with this name already exists"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError carries one or more user-facing messages. It unwraps to [ErrValidation].
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError returns nil when msgs is empty.
func NewValidationError(msgs ...string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

// PasswordPolicy is the login form's password rule: a minimum length in runes plus an optional character class.
type PasswordPolicy struct {
	MinLength    int
	Class        func(rune) bool
	ClassMessage string
}

// PasswordPolicyFor builds the policy for a config rule name ("pictographic" or "none").
func PasswordPolicyFor(rule string, minLength int) PasswordPolicy {
	p := PasswordPolicy{MinLength: minLength}
	if strings.EqualFold(rule, "none") {
		return p
	}
	p.Class = IsPictographic
	p.ClassMessage = "Password must contain at least one emoji"
	return p
}

// DefaultPasswordPolicy requires six characters including one pictographic character.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicyFor("pictographic", 6)
}

// Check returns the messages for every rule password breaks.
func (p PasswordPolicy) Check(password string) []string {
	if password == "" {
		return []string{MsgPasswordRequired}
	}

	var msgs []string
	if utf8.RuneCountInString(password) < p.MinLength {
		msgs = append(msgs, fmt.Sprintf("Password must be at least %d characters", p.MinLength))
	}
	if p.Class != nil && !strings.ContainsFunc(password, p.Class) {
		msgs = append(msgs, p.ClassMessage)
	}
	return msgs
}

// ValidateLogin checks the login form and returns every failure message. An empty result means the form may be submitted.
func ValidateLogin(email, password string, policy PasswordPolicy) []string {
	var msgs []string

	switch email = strings.TrimSpace(email); {
	case email == "":
		msgs = append(msgs, MsgEmailRequired)
	case !emailPattern.MatchString(email):
		msgs = append(msgs, MsgEmailInvalid)
	}

	return append(msgs, policy.Check(password)...)
}

// ValidatePlaylistName checks a proposed playlist name.
//
// taken reports whether another playlist of the same owner already uses the name; it is only consulted for names that pass the length rules.
func ValidatePlaylistName(name string, taken func(string) bool) error {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)

	switch {
	case n == 0:
		return NewValidationError(MsgPlaylistNameRequired)
	case n < PlaylistNameMinLength:
		return NewValidationError(MsgPlaylistNameTooShort)
	case n > PlaylistNameMaxLength:
		return NewValidationError(MsgPlaylistNameTooLong)
	case taken != nil && taken(trimmed):
		return NewValidationError(MsgPlaylistNameTaken)
	}
	return nil
}

// IsPictographic reports whether r has the Unicode Extended_Pictographic property.
func IsPictographic(r rune) bool {
	return unicode.Is(extendedPictographic, r)
}

// extendedPictographic mirrors emoji-data.txt's Extended_Pictographic ranges.
var extendedPictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{0x00A9, 0x00A9, 1},
		{0x00AE, 0x00AE, 1},
		{0x203C, 0x203C, 1},
		{0x2049, 0x2049, 1},
		{0x2122, 0x2122, 1},
		{0x2139, 0x2139, 1},
		{0x2194, 0x2199, 1},
		{0x21A9, 0x21AA, 1},
		{0x231A, 0x231B, 1},
		{0x2328, 0x2328, 1},
		{0x2388, 0x2388, 1},
		{0x23CF, 0x23CF, 1},
		{0x23E9, 0x23F3, 1},
		{0x23F8, 0x23FA, 1},
		{0x24C2, 0x24C2, 1},
		{0x25AA, 0x25AB, 1},
		{0x25B6, 0x25B6, 1},
		{0x25C0, 0x25C0, 1},
		{0x25FB, 0x25FE, 1},
		{0x2600, 0x2605, 1},
		{0x2607, 0x2612, 1},
		{0x2614, 0x2685, 1},
		{0x2690, 0x2705, 1},
		{0x2708, 0x2712, 1},
		{0x2714, 0x2714, 1},
		{0x2716, 0x2716, 1},
		{0x271D, 0x271D, 1},
		{0x2721, 0x2721, 1},
		{0x2728, 0x2728, 1},
		{0x2733, 0x2734, 1},
		{0x2744, 0x2744, 1},
		{0x2747, 0x2747, 1},
		{0x274C, 0x274C, 1},
		{0x274E, 0x274E, 1},
		{0x2753, 0x2755, 1},
		{0x2757, 0x2757, 1},
		{0x2763, 0x2767, 1},
		{0x2795, 0x2797, 1},
		{0x27A1, 0x27A1, 1},
		{0x27B0, 0x27B0, 1},
		{0x27BF, 0x27BF, 1},
		{0x2934, 0x2935, 1},
		{0x2B05, 0x2B07, 1},
		{0x2B1B, 0x2B1C, 1},
		{0x2B50, 0x2B50, 1},
		{0x2B55, 0x2B55, 1},
		{0x3030, 0x3030, 1},
		{0x303D, 0x303D, 1},
		{0x3297, 0x3297, 1},
		{0x3299, 0x3299, 1},
	},
	R32: []unicode.Range32{
		{0x1F000, 0x1F0FF, 1},
		{0x1F10D, 0x1F10F, 1},
		{0x1F12F, 0x1F12F, 1},
		{0x1F16C, 0x1F171, 1},
		{0x1F17E, 0x1F17F, 1},
		{0x1F18E, 0x1F18E, 1},
		{0x1F191, 0x1F19A, 1},
		{0x1F1AD, 0x1F1E5, 1},
		{0x1F201, 0x1F20F, 1},
		{0x1F21A, 0x1F21A, 1},
		{0x1F22F, 0x1F22F, 1},
		{0x1F232, 0x1F23A, 1},
		{0x1F23C, 0x1F23F, 1},
		{0x1F249, 0x1F3FA, 1},
		{0x1F400, 0x1F53D, 1},
		{0x1F546, 0x1F64F, 1},
		{0x1F680, 0x1F6FF, 1},
		{0x1F774, 0x1F77F, 1},
		{0x1F7D5, 0x1F7FF, 1},
		{0x1F80C, 0x1F80F, 1},
		{0x1F848, 0x1F84F, 1},
		{0x1F85A, 0x1F85F, 1},
		{0x1F888, 0x1F88F, 1},
		{0x1F8AE, 0x1F8FF, 1},
		{0x1F90C, 0x1F93A, 1},
		{0x1F93C, 0x1F945, 1},
		{0x1F947, 0x1FAFF, 1},
		{0x1FC00, 0x1FFFD, 1},
	},
	LatinOffset: 2,
}
