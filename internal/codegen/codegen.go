// Package codegen derives short codes from URLs.
package codegen

import (
	"crypto/md5"
	"encoding/hex"
)

// Length is the number of characters in a generated code.
const Length = 8

// Func derives a code from a URL and a salt.
type Func func(url, salt string) string

// Generate returns the first Length hex characters of md5(url + salt).
// The result depends only on its inputs.
func Generate(url, salt string) string {
	sum := md5.Sum([]byte(url + salt))
	return hex.EncodeToString(sum[:])[:Length]
}
