package ui

import (
	"strings"
	"testing"
)

func TestFormatFlag(t *testing.T) {
	tests := []struct {
		name string
		set  bool
		want string
	}{
		{
			name: "set",
			set:  true,
			want: "enabled",
		},
		{
			name: "unset",
			set:  false,
			want: "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatFlag(tt.set, "enabled", "disabled")
			if !strings.Contains(got, tt.want) {
				t.Errorf("FormatFlag() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFormatField(t *testing.T) {
	got := FormatField("Scale", "1.5")
	if !strings.Contains(got, "Scale:") {
		t.Errorf("FormatField() missing label")
	}
	if !strings.HasSuffix(got, " 1.5") {
		t.Errorf("FormatField() = %q, want value at the end", got)
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name    string
		success bool
		icon    string
	}{
		{
			name:    "success",
			success: true,
			icon:    IconSuccess,
		},
		{
			name:    "failure",
			success: false,
			icon:    IconError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResult(tt.success, "configuration applied")
			if !strings.Contains(got, tt.icon) {
				t.Errorf("FormatResult() missing icon %q", tt.icon)
			}
			if !strings.Contains(got, "configuration applied") {
				t.Errorf("FormatResult() missing message")
			}
		})
	}
}
