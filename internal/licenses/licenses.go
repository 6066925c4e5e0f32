// Package licenses carries the notices of the libraries linked into the
// editor binary.
package licenses

import _ "embed"

//go:embed embedded/THIRD_PARTY_NOTICES.md
var noticesText string

func NoticesText() string {
	return noticesText
}
