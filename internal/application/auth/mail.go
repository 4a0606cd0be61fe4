package auth

import (
	"fmt"

	"github.com/campus-auth/internal/application/university"
)

const verificationSubject = "UniMart Verification Code"

// verificationMail builds the code email. Unmatched domains get a generic welcome
// that names the domain the user signed up with.
func verificationMail(code string, res *university.Resolution, emailDomain string, ttlMinutes int) (subject, body string) {
	if res.Matched {
		return verificationSubject, fmt.Sprintf(
			"Welcome to UniMart!\n\n"+
				"Your verification code is: %s\n\n"+
				"This code will expire in %d minutes.\n\n"+
				"Thank you for joining the %s's UniMart community!",
			code, ttlMinutes, res.University.Name,
		)
	}
	return verificationSubject, fmt.Sprintf(
		"Welcome to UniMart!\n\n"+
			"Your verification code is: %s\n\n"+
			"This code will expire in %d minutes.\n\n"+
			"We don't have a marketplace for %s yet, so you'll start out on %s's UniMart. "+
			"We'll let you know when your school is supported.",
		code, ttlMinutes, emailDomain, res.University.Name,
	)
}
