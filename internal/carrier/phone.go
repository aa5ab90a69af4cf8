package carrier

import "strconv"

// FormatPhone normalizes a phone string to the 10-digit numeric form the
// ShipRocket API expects. Handles leading zeros and 91/+91 country prefixes.
// Returns 0 for unusable input.
func FormatPhone(phone string) int64 {
	digits := ""
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			digits += string(c)
		}
	}

	switch len(digits) {
	case 10:
	case 11:
		if digits[0] == '0' {
			digits = digits[1:]
		} else {
			digits = digits[:10]
		}
	case 12:
		if digits[:2] == "91" {
			digits = digits[2:]
		} else {
			digits = digits[:10]
		}
	case 13:
		if digits[:2] == "91" {
			digits = digits[2:12]
		} else {
			digits = digits[:10]
		}
	default:
		if len(digits) > 10 {
			digits = digits[len(digits)-10:]
		} else {
			return 0
		}
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
