package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"proxy-authorization": true,
}

// Secret fields are replaced entirely.
var secretFields = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"credential",
}

// Taxpayer identifiers keep their edges so operators can still correlate records.
var documentFields = map[string]bool{
	"cpf":           true,
	"cnpj":          true,
	"cpfcnpj":       true,
	"cnpjprestador": true,
	"documento":     true,
}

const redactedValue = "[REDACTED]"

// SanitizeHeaders returns a flat copy of headers with secrets redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody redacts secrets and masks taxpayer documents in a JSON body.
// Bodies larger than maxSize are truncated; non-JSON text is wrapped as-is.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if !utf8.Valid(body) {
		return wrap(map[string]any{"_binary": true, "_size": len(body)})
	}
	if maxSize > 0 && len(body) > maxSize {
		return wrap(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   MaskDocumentsInText(string(body[:maxSize])),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return wrap(map[string]any{"_raw": MaskDocumentsInText(string(body)), "_format": "text"})
	}
	return wrap(sanitizeValue("", data))
}

func wrap(v any) json.RawMessage {
	result, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"_format":"unencodable"}`)
	}
	return result
}

func sanitizeValue(key string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = sanitizeField(k, inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = sanitizeValue(key, inner)
		}
		return out
	default:
		return val
	}
}

func sanitizeField(key string, v any) any {
	lower := strings.ToLower(key)
	for _, f := range secretFields {
		if strings.Contains(lower, f) {
			return redactedValue
		}
	}
	if documentFields[lower] {
		if s, ok := v.(string); ok {
			return MaskTaxpayerDocument(s)
		}
	}
	return sanitizeValue(key, v)
}

// MaskTaxpayerDocument keeps the first three and last two digits of a
// CPF or CNPJ and hides the rest. Other inputs are returned unchanged.
func MaskTaxpayerDocument(doc string) string {
	digits := make([]byte, 0, len(doc))
	for i := 0; i < len(doc); i++ {
		if doc[i] >= '0' && doc[i] <= '9' {
			digits = append(digits, doc[i])
		}
	}
	if len(digits) != 11 && len(digits) != 14 {
		return doc
	}
	return string(digits[:3]) + strings.Repeat("*", len(digits)-5) + string(digits[len(digits)-2:])
}

// MaskDocumentsInText masks every standalone run of 11 or 14 digits.
func MaskDocumentsInText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] < '0' || s[i] > '9' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		b.WriteString(MaskTaxpayerDocument(s[i:j]))
		i = j
	}
	return b.String()
}

// SanitizeURL redacts secret query parameters.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for key := range q {
		lower := strings.ToLower(key)
		for _, f := range secretFields {
			if strings.Contains(lower, f) {
				q.Set(key, redactedValue)
				changed = true
				break
			}
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
