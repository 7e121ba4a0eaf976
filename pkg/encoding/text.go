// Package encoding converts names read from mesh files to UTF-8.
package encoding

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ToUTF8 returns data as a UTF-8 string. Valid UTF-8 passes through; any
// other byte sequence is taken to be Windows-1252, the code page older
// writers used for array names.
func ToUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// StringToUTF8 is ToUTF8 for strings.
func StringToUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return ToUTF8([]byte(s))
}
