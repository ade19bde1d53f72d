package log

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"debug", ModeDebug, false},
		{" JSON ", ModeJSON, false},
		{"silent", ModeSilent, false},
		{"", ModeSilent, false},
		{"verbose", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetLoggerDefaultsToSilent(t *testing.T) {
	logger = nil
	if GetLogger() == nil {
		t.Fatalf("GetLogger() returned nil")
	}
	InitLogger(ModeDebug)
	if GetLogger() == nil {
		t.Fatalf("GetLogger() after init returned nil")
	}
	InitLogger(ModeSilent)
}
