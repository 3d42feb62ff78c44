package jsonutil

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "string value", input: `"impurity"`, want: "impurity"},
		{name: "integer value", input: `3`, want: "3"},
		{name: "float value", input: `78.5`, want: "78.5"},
		{name: "whole float collapses", input: `3.0`, want: "3"},
		{name: "boolean value", input: `true`, want: "true"},
		{name: "null value", input: `null`, want: ""},
		{name: "empty raw", input: ``, want: ""},
		{name: "empty string", input: `""`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlexibleStringValue(json.RawMessage(tt.input)); got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFlexibleStringMap(t *testing.T) {
	raw := json.RawMessage(`{"severity_level": 3, "flag_type": "impurity", "active": true}`)

	got, err := FlexibleStringMap(raw)
	if err != nil {
		t.Fatalf("FlexibleStringMap() error = %v", err)
	}

	want := map[string]string{
		"severity_level": "3",
		"flag_type":      "impurity",
		"active":         "true",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlexibleStringMap() = %v, want %v", got, want)
	}
}

func TestFlexibleStringMapEdgeCases(t *testing.T) {
	if m, err := FlexibleStringMap(json.RawMessage(`null`)); err != nil || len(m) != 0 {
		t.Errorf("FlexibleStringMap(null) = (%v, %v), want empty map", m, err)
	}
	if m, err := FlexibleStringMap(nil); err != nil || len(m) != 0 {
		t.Errorf("FlexibleStringMap(nil) = (%v, %v), want empty map", m, err)
	}
	if _, err := FlexibleStringMap(json.RawMessage(`["severity_level"]`)); err == nil {
		t.Error("FlexibleStringMap(array) accepted a non-object")
	}
}
