package cmd

import (
	"testing"
)

// TestScanCommand_Structure tests command is properly configured
func TestScanCommand_Structure(t *testing.T) {
	if scanCmd == nil {
		t.Fatal("scanCmd is nil")
	}

	if scanCmd.Use != "scan" {
		t.Errorf("expected Use='scan', got '%s'", scanCmd.Use)
	}

	if scanCmd.RunE == nil {
		t.Error("RunE function is nil")
	}
}

// TestScanCommand_Flags tests command flags are defined
func TestScanCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		flag      string
		shorthand string
		defValue  string
	}{
		{name: "limit", flag: "limit", shorthand: "l", defValue: "100"},
		{name: "threshold", flag: "threshold", shorthand: "t", defValue: "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := scanCmd.Flags().Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("%s flag not defined", tt.flag)
			}

			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected %s shorthand '%s', got '%s'", tt.flag, tt.shorthand, flag.Shorthand)
			}

			if flag.DefValue != tt.defValue {
				t.Errorf("expected %s default '%s', got '%s'", tt.flag, tt.defValue, flag.DefValue)
			}
		})
	}
}

// TestScanCommand_ThresholdRange tests threshold validation
func TestScanCommand_ThresholdRange(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		valid     bool
	}{
		{name: "zero", threshold: 0.0, valid: false},
		{name: "negative", threshold: -0.02, valid: false},
		{name: "typical", threshold: 0.02, valid: true},
		{name: "wide", threshold: 0.1, valid: true},
		{name: "upper bound", threshold: 1.0, valid: false},
		{name: "too high", threshold: 1.5, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := tt.threshold > 0 && tt.threshold < 1
			if valid != tt.valid {
				t.Errorf("threshold %.3f: expected valid=%v, got valid=%v", tt.threshold, tt.valid, valid)
			}
		})
	}
}
