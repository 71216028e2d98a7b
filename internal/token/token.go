// Package token implements the resolution token codec described in spec
// §4.9: an opaque, self-describing, stateless carrier for the provider name
// and its resolution payload, embedded in PreviewStream resolver URLs.
//
// Tokens are base64url(json({provider, payload, id})) — no server-side
// secret, no signature, matching the spec's explicit "stateless" and
// "survives restarts" requirements. The Open Question the spec records
// (credentials riding in the payload are only base64-wrapped, not
// encrypted) is carried forward unresolved here; see DESIGN.md.
package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DefaultMaxBytes bounds the decoded token size so a malformed or hostile
// input can't force an unbounded json.Unmarshal allocation.
const DefaultMaxBytes = 4096

// Token is the decoded shape of a resolver token: which provider chain must
// run, and that provider's opaque resolution payload.
type Token struct {
	// ID uniquely identifies this token instance. It carries no meaning to
	// the resolver beyond logging/dedup; it exists so two tokens minted for
	// the same payload are still distinguishable in logs.
	ID       string          `json:"id"`
	Provider string          `json:"provider"`
	Payload  json.RawMessage `json:"payload"`
}

// Encode mints a new opaque token for provider carrying payload (any
// JSON-marshalable provider-specific struct, e.g. the UHDMovies SID URL or
// an Easynews credential bundle).
func Encode(provider string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}
	t := Token{ID: uuid.NewString(), Provider: provider, Payload: raw}
	body, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(body), nil
}

// Decode validates and unmarshals an opaque token. maxBytes<=0 uses
// DefaultMaxBytes. Malformed or oversized input is rejected, never panics.
func Decode(encoded string, maxBytes int) (Token, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(encoded) == 0 {
		return Token{}, fmt.Errorf("empty token")
	}
	if len(encoded) > maxBytes*2 {
		// base64 expands size by ~4/3; reject clearly-oversized input before
		// even attempting to decode it.
		return Token{}, fmt.Errorf("token exceeds maximum size")
	}

	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Token{}, fmt.Errorf("decode token: %w", err)
	}
	if len(body) > maxBytes {
		return Token{}, fmt.Errorf("token exceeds maximum size")
	}

	var t Token
	if err := json.Unmarshal(body, &t); err != nil {
		return Token{}, fmt.Errorf("unmarshal token: %w", err)
	}
	if t.Provider == "" {
		return Token{}, fmt.Errorf("token missing provider")
	}
	return t, nil
}

// DecodePayload decodes the token and unmarshals its payload into dst in
// one step.
func DecodePayload(encoded string, maxBytes int, dst any) (provider string, err error) {
	t, err := Decode(encoded, maxBytes)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(t.Payload, dst); err != nil {
		return "", fmt.Errorf("unmarshal token payload: %w", err)
	}
	return t.Provider, nil
}
