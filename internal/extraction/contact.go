package extraction

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// optional country code, then grouped digit runs split by space, dash or dot
	phonePattern = regexp.MustCompile(`\+?\d{1,4}[\s\-\.]?\(?\d{1,4}\)?([\s\-\.]?\d{2,4}){2,4}`)
)

// EmailStrategy finds the first e-mail address in the text
func EmailStrategy() Strategy {
	return NewPatternStrategy("email-pattern", emailPattern)
}

// PhoneStrategy finds the first international phone number in the text
func PhoneStrategy() Strategy {
	return NewPatternStrategy("phone-pattern", phonePattern)
}
