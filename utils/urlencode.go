package utils

import "net/url"

// EncodeURLWithSpaces re-encodes rawURL so that spaces and other characters
// that raw media paths commonly contain (brackets, apostrophes, non-ASCII
// titles) are properly percent-escaped in the path component, while leaving
// the scheme, host and query string untouched.
func EncodeURLWithSpaces(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}
