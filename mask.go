package veneer

import (
	"strings"
	"unicode"
)

// MaskType names a data format with masking rules, used with Masked.
type MaskType string

const (
	MaskSSN   MaskType = "ssn"   // 123-45-6789 -> ***-**-6789
	MaskEmail MaskType = "email" // alice@example.com -> a***@example.com
	MaskPhone MaskType = "phone" // (555) 123-4567 -> (***) ***-4567
	MaskCard  MaskType = "card"  // 4111111111111111 -> ************1111
	MaskIP    MaskType = "ip"    // 192.168.1.100 -> 192.168.xxx.xxx
	MaskUUID  MaskType = "uuid"  // 550e8400-e29b-... -> 550e8400-****-****-****-************
	MaskIBAN  MaskType = "iban"  // GB82WEST12345698765432 -> GB82**************5432
	MaskName  MaskType = "name"  // Luke Skywalker -> L*** S********
)

// Masker hides part of a rendered string.
type Masker interface {
	Mask(value string) string
}

// MaskerFunc adapts a function into a Masker.
type MaskerFunc func(string) string

// Mask calls f(value).
func (f MaskerFunc) Mask(value string) string { return f(value) }

// stars replaces every byte of value with '*'.
func stars(value string) string {
	return strings.Repeat("*", len(value))
}

// digitsOf returns the digit characters of s.
func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// maskSSN keeps the last four digits.
func maskSSN(value string) string {
	d := digitsOf(value)
	if len(d) < 4 {
		return stars(value)
	}
	return "***-**-" + d[len(d)-4:]
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(value string) string {
	at := strings.LastIndex(value, "@")
	if at < 1 {
		return stars(value)
	}
	return value[:1] + "***" + value[at:]
}

// maskPhone keeps the last four digits and the area-code shape.
func maskPhone(value string) string {
	d := digitsOf(value)
	if len(d) < 4 {
		return stars(value)
	}
	last4 := d[len(d)-4:]
	switch {
	case strings.HasPrefix(value, "(") && len(d) >= 10:
		return "(***) ***-" + last4
	case len(d) >= 10:
		return "***-***-" + last4
	default:
		return "***-" + last4
	}
}

// maskCard keeps the last four digits and the grouping separator.
func maskCard(value string) string {
	d := digitsOf(value)
	if len(d) < 4 {
		return stars(value)
	}
	last4 := d[len(d)-4:]

	sep := ""
	switch {
	case strings.Contains(value, " "):
		sep = " "
	case strings.Contains(value, "-"):
		sep = "-"
	}
	if sep == "" {
		return strings.Repeat("*", len(d)-4) + last4
	}

	groups := make([]string, (len(d)-4+3)/4, (len(d)-4+3)/4+1)
	for i := range groups {
		groups[i] = "****"
	}
	return strings.Join(append(groups, last4), sep)
}

// maskIP keeps the network half of an IPv4 or IPv6 address.
func maskIP(value string) string {
	if parts := strings.Split(value, "."); len(parts) == 4 {
		return parts[0] + "." + parts[1] + ".xxx.xxx"
	}
	if !strings.Contains(value, ":") {
		return stars(value)
	}
	groups := strings.Split(expandIPv6(value), ":")
	if len(groups) != 8 {
		return stars(value)
	}
	return strings.Join(groups[:4], ":") + ":xxxx:xxxx:xxxx:xxxx"
}

// expandIPv6 expands "::" into the missing zero groups.
func expandIPv6(value string) string {
	head, tail, found := strings.Cut(value, "::")
	if !found || strings.Contains(tail, "::") {
		return value
	}

	var left, right []string
	if head != "" {
		left = strings.Split(head, ":")
	}
	if tail != "" {
		right = strings.Split(tail, ":")
	}

	missing := 8 - len(left) - len(right)
	if missing < 0 {
		return value
	}

	all := make([]string, 0, 8)
	all = append(all, left...)
	for range missing {
		all = append(all, "0000")
	}
	all = append(all, right...)
	return strings.Join(all, ":")
}

// maskUUID keeps the first segment.
func maskUUID(value string) string {
	parts := strings.Split(value, "-")
	if len(parts) != 5 {
		return stars(value)
	}
	return parts[0] + "-****-****-****-************"
}

// maskIBAN keeps the country code, check digits and last four characters.
func maskIBAN(value string) string {
	if len(value) <= 8 {
		return stars(value)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// maskName keeps the first letter of each word.
func maskName(value string) string {
	words := strings.Fields(value)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(r[0]) + strings.Repeat("*", len(r)-1)
	}
	return strings.Join(words, " ")
}

// builtinMaskers returns the default masker table.
func builtinMaskers() map[MaskType]Masker {
	return map[MaskType]Masker{
		MaskSSN:   MaskerFunc(maskSSN),
		MaskEmail: MaskerFunc(maskEmail),
		MaskPhone: MaskerFunc(maskPhone),
		MaskCard:  MaskerFunc(maskCard),
		MaskIP:    MaskerFunc(maskIP),
		MaskUUID:  MaskerFunc(maskUUID),
		MaskIBAN:  MaskerFunc(maskIBAN),
		MaskName:  MaskerFunc(maskName),
	}
}
