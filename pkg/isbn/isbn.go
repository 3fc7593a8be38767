package isbn

import (
	"regexp"
	"strings"
)

var (
	noise  = regexp.MustCompile(`[^0-9Xx]`)
	isbn13 = regexp.MustCompile(`^(978|979)\d{10}$`)
	isbn10 = regexp.MustCompile(`^\d{9}[\dXx]$`)
)

// Normalize strips everything but digits and X/x from raw and returns the
// canonical ISBN when the remainder is a 978/979 thirteen digit string or a
// nine digit string followed by a digit or X. Check digits are not verified.
func Normalize(raw string) (string, bool) {
	cleaned := noise.ReplaceAllString(raw, "")
	if isbn13.MatchString(cleaned) {
		return cleaned, true
	}
	if isbn10.MatchString(cleaned) {
		return strings.ToUpper(cleaned), true
	}
	return "", false
}

// NormalizeStrict behaves like Normalize and then rejects candidates whose
// check digit does not match.
func NormalizeStrict(raw string) (string, bool) {
	id, ok := Normalize(raw)
	if !ok || !ValidChecksum(id) {
		return "", false
	}
	return id, true
}

// ValidChecksum verifies the modulo-10 (ISBN-13) or modulo-11 (ISBN-10) check digit
// of a canonical identifier.
func ValidChecksum(id string) bool {
	switch len(id) {
	case 13:
		return checkDigit13(id[:12]) == id[12]
	case 10:
		return checkDigit10(id[:9]) == id[9]
	}
	return false
}

// ToISBN13 converts a canonical ISBN-10 to its 978-prefixed ISBN-13 form.
// ISBN-13 input is returned as is.
func ToISBN13(id string) (string, bool) {
	switch {
	case isbn13.MatchString(id):
		return id, true
	case isbn10.MatchString(id):
		body := "978" + id[:9]
		return body + string(checkDigit13(body)), true
	}
	return "", false
}

func checkDigit13(body string) byte {
	sum := 0
	for i := 0; i < len(body); i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

func checkDigit10(body string) byte {
	sum := 0
	for i := 0; i < len(body); i++ {
		sum += int(body[i]-'0') * (10 - i)
	}
	c := (11 - sum%11) % 11
	if c == 10 {
		return 'X'
	}
	return byte('0' + c)
}
