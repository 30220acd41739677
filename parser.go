package callerid

// Caller-ID record markers, matched without regard to ASCII case
const (
	markerNMBR   = "NMBR="
	markerNUMBER = "NUMBER="
)

// Digit count limits for a phone number
const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// ParseLine extracts a phone number from one line of modem output.
//
// The first rule that yields a number wins:
//
//  1. the digits directly following NMBR=, if there are at least MinPhoneDigits
//  2. the digits directly following NUMBER=, same requirement
//  3. every digit in the line, if there are MinPhoneDigits..MaxPhoneDigits of them
//
// Marker rules have no upper bound on the digit run.
func ParseLine(line string) (string, bool) {
	if line == "" {
		return "", false
	}

	for _, marker := range []string{markerNMBR, markerNUMBER} {
		idx := indexFold(line, marker)
		if idx < 0 {
			continue
		}
		run := leadingDigits(line[idx+len(marker):])
		if len(run) >= MinPhoneDigits {
			return run, true
		}
	}

	digits := make([]byte, 0, len(line))
	for i := 0; i < len(line); i++ {
		if isDigit(line[i]) {
			digits = append(digits, line[i])
		}
	}
	if len(digits) >= MinPhoneDigits && len(digits) <= MaxPhoneDigits {
		return string(digits), true
	}

	return "", false
}

// leadingDigits returns the maximal run of ASCII digits at the start of s
func leadingDigits(s string) string {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// indexFold is strings.Index with ASCII case folding. Byte offsets are
// preserved, which strings.ToUpper does not guarantee for non-ASCII input.
func indexFold(s, upperSubstr string) int {
	n := len(upperSubstr)
	for i := 0; i+n <= len(s); i++ {
		match := true
		for j := 0; j < n; j++ {
			c := s[i+j]
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			if c != upperSubstr[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
