package sanitizer

import (
	"strings"
)

// NormalizeURL forces https, lowercases the host and drops a trailing slash.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	for _, scheme := range []string{"https://", "http://"} {
		if len(url) >= len(scheme) && strings.EqualFold(url[:len(scheme)], scheme) {
			url = url[len(scheme):]
			break
		}
	}
	parts := strings.SplitN(url, "/", 2)
	domain := strings.ToLower(parts[0])
	if domain == "" {
		return ""
	}
	var path string
	if len(parts) > 1 {
		path = "/" + parts[1]
	}
	result := "https://" + domain + path
	result = strings.TrimSuffix(result, "/")
	return result
}
