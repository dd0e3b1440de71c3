package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenState stores auth token info persisted between CLI sessions.
type TokenState struct {
	AccessToken     string    `json:"access_token"`
	Username        string    `json:"username"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// Expired reports whether the stored access token is missing or past its
// expiry. Tokens without an exp claim never expire locally.
func (st TokenState) Expired(now time.Time) bool {
	if st.AccessToken == "" {
		return true
	}
	if st.AccessExpiresAt.IsZero() {
		return false
	}
	return !now.Before(st.AccessExpiresAt)
}

// ExpiryOf extracts the exp claim from a JWT without verifying its
// signature; the platform is the authority, this only drives local
// re-login prompts. Returns the zero time when the claim is absent or the
// token is not a JWT.
func ExpiryOf(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func Load(path string) (TokenState, error) {
	var st TokenState
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read token state failed: %w", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse token state failed: %w", err)
	}
	return st, nil
}

func Save(path string, st TokenState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create token state dir failed: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token state failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token state failed: %w", err)
	}
	return nil
}

func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token state failed: %w", err)
	}
	return nil
}
