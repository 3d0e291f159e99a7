package common

import (
	"regexp"
	"strings"
	"sync/atomic"
)

const maskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "uri_credentials")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string
	Keys        []string       // Specific keys to mask (lower-case)
}

// DefaultSensitivePatterns covers store passwords, credentials embedded in
// connection URIs and session cookies.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "uri_credentials",
		Regex:       regexp.MustCompile(`(?i)([a-z][a-z0-9+.-]*://[^:/@\s]+):([^@\s]+)@`),
		Replacement: "${1}:" + maskedValue + "@",
	},
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)(["'\s]*[:=]["'\s]*)([^"',}\]\s]+)`),
		Replacement: "${1}${2}" + maskedValue,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "cookie",
		Regex:       regexp.MustCompile(`(?i)(ASP\.NET_SessionId|session[_-]?id)=([^;\s]+)`),
		Replacement: "${1}=" + maskedValue,
		Keys:        []string{"cookie", "set-cookie"},
	},
}

// Masker handles masking of sensitive information in logs
type Masker struct {
	patterns []SensitivePattern
	enabled  atomic.Bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return NewMaskerWithPatterns(DefaultSensitivePatterns)
}

// NewMaskerWithPatterns creates a new masker with custom patterns
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	m := &Masker{patterns: patterns}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	return m.enabled.Load()
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.IsEnabled() {
		return input
	}
	result := input
	for _, pattern := range m.patterns {
		if pattern.Regex == nil {
			continue
		}
		result = pattern.Regex.ReplaceAllString(result, pattern.Replacement)
	}
	return result
}

// MaskValue masks value entirely when key names a secret (exactly, or as a
// suffix like SCRAPPER_MONGO_CONFIGDB_PASSWORD), otherwise applies the patterns.
func (m *Masker) MaskValue(key, value string) string {
	if !m.IsEnabled() {
		return value
	}
	lowerKey := strings.ToLower(key)
	for _, pattern := range m.patterns {
		for _, sensitiveKey := range pattern.Keys {
			if lowerKey == sensitiveKey || strings.HasSuffix(lowerKey, "_"+sensitiveKey) {
				return maskedValue
			}
		}
	}
	return m.MaskString(value)
}

// MaskMap returns a copy of kv with sensitive values masked.
func (m *Masker) MaskMap(kv map[string]string) map[string]string {
	out := make(map[string]string, len(kv))
	for k, v := range kv {
		out[k] = m.MaskValue(k, v)
	}
	return out
}

// Global masker instance
var globalMasker = NewMasker()

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}

// IsMaskingEnabled returns whether global masking is enabled
func IsMaskingEnabled() bool {
	return globalMasker.IsEnabled()
}
