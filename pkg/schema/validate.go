package schema

import "encoding/hex"

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ValidSHA256 reports whether v is a 64-character hex string
func ValidSHA256(v string) bool {
	return isHex(v, 64)
}

func isHex(v string, chars int) bool {
	if len(v) != chars {
		return false
	}
	_, err := hex.DecodeString(v)
	return err == nil
}
