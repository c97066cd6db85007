package gelf

import (
	"testing"
	"time"
)

func TestFormattingOptions_resolvedTimeFormat(t *testing.T) {

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"valid custom layout unchanged", time.Kitchen, time.Kitchen},
		{"empty layout coerced to default", "", time.RFC3339Nano},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			opts := &FormattingOptions{TimeFormat: tt.input}
			opts.resolve()
			if opts.TimeFormat != tt.expect {
				t.Errorf("failed: %s, expected: %s, got: %s", tt.name, tt.expect, opts.TimeFormat)
			}
		})
	}
}

func TestDefaultFormattingOptions(t *testing.T) {
	opts := DefaultFormattingOptions()
	if opts.TimeFormat != time.RFC3339Nano {
		t.Fatalf("expected default TimeFormat to be RFC3339Nano, got: %s", opts.TimeFormat)
	}
	if opts.IncludeAmbientContextProperties || opts.SerializeObjectProperties {
		t.Fatal("expected ambient properties and object serialization to be off by default")
	}
	if len(opts.Facility) > 0 {
		t.Fatalf("expected no default facility, got: %s", opts.Facility)
	}
}

func TestTargetOptions_resolve(t *testing.T) {
	opts := &TargetOptions{Format: Format(7)}
	opts.resolve()

	if opts.Format != FormatJSON {
		t.Errorf("expected unknown Format to be coerced to json, got: %s", opts.Format)
	}
	if opts.Formatting == nil || opts.Formatting.TimeFormat != time.RFC3339Nano {
		t.Errorf("expected default FormattingOptions, got: %+v", opts.Formatting)
	}
	if opts.Transport == nil || opts.Transport.IDs == nil {
		t.Errorf("expected default TransportOptions, got: %+v", opts.Transport)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		expect  Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"MSGPACK", FormatMsgpack, false},
		{"xml", 0, true},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.expect {
				t.Errorf("expected: %s, got: %s", tt.expect, got)
			}
		})
	}
}
