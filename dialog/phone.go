package dialog

import "strings"

// NormalizePhone reduces a transport address such as
// "5563999999999@s.whatsapp.net" to its digits. Senders without digits map
// to UnknownPhone.
func NormalizePhone(raw string) string {
	if i := strings.Index(raw, "@"); i >= 0 {
		raw = raw[:i]
	}

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	if digits.Len() == 0 {
		return UnknownPhone
	}
	return digits.String()
}

// validPhone accepts numbers with area code, with or without country code.
func validPhone(digits string) bool {
	return len(digits) >= 10 && len(digits) <= 13
}
