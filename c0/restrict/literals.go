package restrict

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	errLeadingZero  = errors.New("decimal literal may not have leading zeros")
	errDecimalRange = errors.New("decimal literal out of range; must be at most 2147483648")
	errHexRange     = errors.New("hexadecimal literal out of range; at most 8 digits are allowed")
)

// DecodeDecimal converts a decimal literal to its 32-bit value. The
// magnitude 2147483648 is accepted and wraps to the minimum integer, so
// that -2147483648 can be written.
func DecodeDecimal(raw string) (int32, error) {
	if len(raw) > 1 && raw[0] == '0' {
		return 0, errLeadingZero
	}
	if len(raw) > 10 {
		return 0, errDecimalRange
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal literal %q", raw)
	}
	if v > 1<<31 {
		return 0, errDecimalRange
	}
	return int32(uint32(v)), nil
}

// DecodeHex converts a 0x literal to its 32-bit two's-complement value.
func DecodeHex(raw string) (int32, error) {
	if len(raw) < 3 || raw[0] != '0' || (raw[1] != 'x' && raw[1] != 'X') {
		return 0, fmt.Errorf("invalid hexadecimal literal %q", raw)
	}
	digits := raw[2:]
	if len(digits) > 8 {
		return 0, errHexRange
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hexadecimal literal %q", raw)
	}
	return int32(uint32(v)), nil
}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'v':  '\v',
	'b':  '\b',
	'r':  '\r',
	'f':  '\f',
	'a':  '\a',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

// unescape decodes the body of a string or character literal. allowNul
// additionally accepts \0, which only character literals may use.
func unescape(body string, allowNul bool) (string, error) {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch == '\\' {
			if i+1 >= len(body) {
				return "", errors.New("unterminated escape sequence")
			}
			i++
			esc := body[i]
			if decoded, ok := escapes[esc]; ok {
				out = append(out, decoded)
				continue
			}
			if esc == '0' && allowNul {
				out = append(out, 0)
				continue
			}
			return "", fmt.Errorf("invalid escape sequence '\\%c'", esc)
		}
		if ch < ' ' || ch > '~' {
			return "", fmt.Errorf("invalid character %q; only printable ASCII is allowed", ch)
		}
		out = append(out, ch)
	}
	return string(out), nil
}

// DecodeString decodes a string literal including its quotes.
func DecodeString(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", fmt.Errorf("malformed string literal %s", raw)
	}
	return unescape(raw[1:len(raw)-1], false)
}

// DecodeChar decodes a character literal including its quotes.
func DecodeChar(raw string) (byte, error) {
	if len(raw) < 3 || raw[0] != '\'' || raw[len(raw)-1] != '\'' {
		return 0, fmt.Errorf("malformed character literal %s", raw)
	}
	s, err := unescape(raw[1:len(raw)-1], true)
	if err != nil {
		return 0, err
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("character literal %s must contain exactly one character", raw)
	}
	return s[0], nil
}
