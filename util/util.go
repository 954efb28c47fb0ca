package util

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsNumberAndLargerThanZero(b byte) bool {
	if b == '0' {
		return false
	}
	return IsNumber(b)
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsLetterOrUnderscore(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

func IsLetterOrUnderscoreOrNumber(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsNumber(b)
}

// IsIdentifier reports whether s is a letter or an underscore followed by letters, underscores
// and digits.
func IsIdentifier(s string) bool {
	if len(s) == 0 || !IsLetterOrUnderscore(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsLetterOrUnderscoreOrNumber(s[i]) {
			return false
		}
	}
	return true
}

// IsInteger reports whether s is an optionally negative decimal without leading zeros.
func IsInteger(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	if len(s) > 1 && !IsNumberAndLargerThanZero(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsNumber(s[i]) {
			return false
		}
	}
	return true
}

// IsClassName reports whether s is an internal class name like java/lang/Object.
func IsClassName(s string) bool {
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '/' {
			if !IsIdentifier(s[start:i]) {
				return false
			}
			start = i + 1
		}
	}
	return true
}
