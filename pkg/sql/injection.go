package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheck describes a filter value rejected by the injection screen.
type InjectionCheck struct {
	Field       string // filter key the value arrived under
	Value       string
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// ScreenValue runs libinjection over one raw filter value. Filter values are
// always bound as query parameters, so the screen is a second line of defense
// that also keeps hostile payloads out of logs and error details. Returns nil
// when the value is clean.
func ScreenValue(field, value string) *InjectionCheck {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheck{
		Field:       field,
		Value:       value,
		Fingerprint: string(fingerprint),
	}
}
