package sql

import (
	"testing"
)

func TestScreenValueAcceptsCleanInput(t *testing.T) {
	clean := []string{
		"DL-100",
		"gate_1",
		"impurity",
		"51 - 100",
		"2025-06-01",
		"",
	}

	for _, value := range clean {
		if chk := ScreenValue("delivery_id", value); chk != nil {
			t.Errorf("ScreenValue(%q) = %+v, want clean", value, chk)
		}
	}
}

func TestScreenValueFlagsInjection(t *testing.T) {
	payloads := []string{
		"' OR 1=1--",
		"1; DROP TABLE delivery",
		"' UNION SELECT password FROM wa_tenant --",
	}

	for _, value := range payloads {
		chk := ScreenValue("location", value)
		if chk == nil {
			t.Errorf("ScreenValue(%q) = nil, want rejection", value)
			continue
		}
		if chk.Field != "location" || chk.Value != value {
			t.Errorf("check = %+v, want field/value preserved", chk)
		}
		if chk.Fingerprint == "" {
			t.Errorf("ScreenValue(%q) has empty fingerprint", value)
		}
	}
}
