package daemonservice

import (
	"errors"
	"testing"
)

func TestEnvBoolWithFallback(t *testing.T) {
	const key = "MKT_TEST_BOOL"
	cases := []struct {
		raw      string
		fallback bool
		want     bool
	}{
		{raw: "", fallback: true, want: true},
		{raw: " yes ", fallback: false, want: true},
		{raw: "OFF", fallback: true, want: false},
		{raw: "1", fallback: false, want: true},
	}
	for _, tc := range cases {
		t.Setenv(key, tc.raw)
		got, err := envBoolWithFallback(key, tc.fallback)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("unexpected value for %q: got=%v want=%v", tc.raw, got, tc.want)
		}
	}
}

func TestEnvBoolRejectsGarbage(t *testing.T) {
	const key = "MKT_TEST_BOOL"
	t.Setenv(key, "maybe")
	if _, err := envBoolWithFallback(key, false); !errors.Is(err, ErrInvalidEnvBool) {
		t.Fatalf("expected ErrInvalidEnvBool, got %v", err)
	}
}
