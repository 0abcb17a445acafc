package credentials

import (
	"crypto/rand"
	"errors"
	"testing"
	"testing/iotest"
)

func TestHashSecret(t *testing.T) {
	const abc = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	if got := HashSecret("abc"); got != abc {
		t.Errorf("HashSecret(abc) = %s, want %s", got, abc)
	}
	if HashSecret("abc") != HashSecret("abc") {
		t.Error("HashSecret should be deterministic")
	}
	if HashSecret("abc") == HashSecret("abd") {
		t.Error("different secrets should hash differently")
	}
}

func TestGeneratePin(t *testing.T) {
	seen := make(map[byte]bool)
	for range 200 {
		pin, err := GeneratePin(rand.Reader)
		if err != nil {
			t.Fatalf("GeneratePin() failed: %v", err)
		}
		if err := ValidatePinFormat(pin); err != nil {
			t.Fatalf("GeneratePin() = %q: %v", pin, err)
		}
		seen[pin[0]] = true
	}
	if len(seen) < 5 {
		t.Errorf("first digit looks non-uniform, saw only %d values", len(seen))
	}
}

func TestGeneratePin_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := GeneratePin(iotest.ErrReader(boom)); !errors.Is(err, boom) {
		t.Errorf("GeneratePin() error = %v, want %v", err, boom)
	}
}

func TestValidatePinFormat(t *testing.T) {
	tests := []struct {
		pin     string
		wantErr bool
	}{
		{"0000", false},
		{"0042", false},
		{"9999", false},
		{"123", true},
		{"12345", true},
		{"12a4", true},
		{"١٢٣٤", true}, // non-ASCII digits
		{"", true},
	}
	for _, tt := range tests {
		err := ValidatePinFormat(tt.pin)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePinFormat(%q) error = %v, wantErr %v", tt.pin, err, tt.wantErr)
		}
	}
}
