package cache

import "net/url"

// Key derives the cache key of a logical read request. Parameters are encoded
// sorted by name, so the order in which a caller added them never matters.
func Key(target string, params url.Values) string {
	if len(params) == 0 {
		return target
	}
	return target + "?" + params.Encode()
}

// ScopeKey is the key prefix shared by every request to target whose
// (alphabetically first) parameter is param=value. Used with Invalidate.
func ScopeKey(target, param, value string) string {
	return target + "?" + url.Values{param: []string{value}}.Encode()
}
