// Package naming converts between the operation identifiers found in client
// metadata and the Go method names that implement them.
//
// Metadata identifiers come in three shapes: snake_case (service models,
// registries written by hand), lowerCamel and PascalCase (API operation names).
// Go methods are always exported PascalCase, optionally with initialisms kept
// upper case (GetHTTPStatus rather than GetHttpStatus). MethodCandidates yields
// every plausible method name for an identifier so the caller can resolve the
// first one that exists.
package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// firstCap splits before a capitalised word: "HTTPMethod" -> "HTTP_Method".
	firstCap = regexp.MustCompile(`(.)([A-Z][a-z]+)`)

	// allCap splits a lower/digit to upper transition: "testHTTP" -> "test_HTTP".
	allCap = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// commonInitialisms are the word parts Go spells entirely in upper case.
var commonInitialisms = map[string]bool{
	"ACL":   true,
	"API":   true,
	"ARN":   true,
	"CPU":   true,
	"CSS":   true,
	"DNS":   true,
	"EOF":   true,
	"HTML":  true,
	"HTTP":  true,
	"HTTPS": true,
	"ID":    true,
	"IP":    true,
	"JSON":  true,
	"KMS":   true,
	"MFA":   true,
	"OIDC":  true,
	"SAML":  true,
	"SQL":   true,
	"SSE":   true,
	"SSH":   true,
	"TCP":   true,
	"TLS":   true,
	"TTL":   true,
	"UDP":   true,
	"URI":   true,
	"URL":   true,
	"UUID":  true,
	"XML":   true,
}

// CamelToSnake converts a camelCase or PascalCase name to snake_case.
//
//	CamelToSnake("TestVariable")   // "test_variable"
//	CamelToSnake("testHTTPMethod") // "test_http_method"
func CamelToSnake(name string) string {
	s := firstCap.ReplaceAllString(name, "${1}_${2}")
	s = allCap.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}

// SnakeToPascal converts a snake_case name to PascalCase without initialisms.
func SnakeToPascal(name string) string {
	return joinParts(name, false)
}

// SnakeToGo converts a snake_case name to PascalCase, spelling common
// initialisms in upper case the way Go identifiers do.
func SnakeToGo(name string) string {
	return joinParts(name, true)
}

func joinParts(name string, initialisms bool) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		if initialisms {
			if upper := strings.ToUpper(part); commonInitialisms[upper] {
				b.WriteString(upper)
				continue
			}
		}
		b.WriteString(upperFirst(part))
	}
	return b.String()
}

// MethodCandidates returns the Go method names that may implement the
// operation identifier id, most likely first and without duplicates.
//
// Identifiers without underscores are tried verbatim (first letter upper-cased)
// before the snake_case round trip, so API names such as "GetHTTPStatus" resolve
// directly while "get_http_status" and "getHttpStatus" still reach the same
// method.
func MethodCandidates(id string) []string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool, 3)
	add := func(s string) {
		if s == "" || seen[s] || !isExported(s) {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	if !strings.Contains(id, "_") {
		add(upperFirst(id))
	}

	snake := CamelToSnake(id)
	add(SnakeToPascal(snake))
	add(SnakeToGo(snake))

	return out
}

// CounterpartName returns the name of the counterpart of method.
func CounterpartName(method, suffix string) string {
	return method + suffix
}

// HasSuffix reports whether method already carries suffix, i.e. whether it
// looks like a counterpart itself.
func HasSuffix(method, suffix string) bool {
	return suffix != "" && len(method) > len(suffix) && strings.HasSuffix(method, suffix)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isExported(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
