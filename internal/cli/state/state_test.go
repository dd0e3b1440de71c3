package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	want := TokenState{
		AccessToken:     "tok",
		Username:        "demo",
		AccessExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Errorf("round trip: got %+v, want %+v", got, want)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != "" {
		t.Errorf("missing file should yield empty state, got %+v", got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := Save(path, TokenState{AccessToken: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		st   TokenState
		want bool
	}{
		{"no token", TokenState{}, true},
		{"no expiry", TokenState{AccessToken: "tok"}, false},
		{"future expiry", TokenState{AccessToken: "tok", AccessExpiresAt: now.Add(time.Minute)}, false},
		{"past expiry", TokenState{AccessToken: "tok", AccessExpiresAt: now.Add(-time.Minute)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.st.Expired(now); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExpiryOfReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "demo",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	got := ExpiryOf(token)
	if !got.Equal(exp) {
		t.Errorf("expiry: got %s, want %s", got, exp)
	}
}

func TestExpiryOfNonJWT(t *testing.T) {
	if got := ExpiryOf("opaque-token"); !got.IsZero() {
		t.Errorf("opaque token should have zero expiry, got %s", got)
	}
	if got := ExpiryOf(""); !got.IsZero() {
		t.Errorf("empty token should have zero expiry, got %s", got)
	}
}

func TestExpiryOfTokenWithoutExp(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "demo",
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if got := ExpiryOf(token); !got.IsZero() {
		t.Errorf("token without exp should have zero expiry, got %s", got)
	}
}
