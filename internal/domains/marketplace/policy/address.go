package policy

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"modelmarket/go-backend/internal/domains/marketplace/model"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

const addressPrefix = "mkt1"

// BuildAddress derives a party address from its signing key.
func BuildAddress(signingPublicKey []byte) (model.Address, error) {
	if len(signingPublicKey) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid signing public key size: %d", len(signingPublicKey))
	}
	h := blake2b.Sum256(signingPublicKey)
	return model.Address(addressPrefix + base58.Encode(h[:])), nil
}

// NormalizeAddress trims raw input and checks the mkt1 + base58(32 bytes) shape.
func NormalizeAddress(raw string) (model.Address, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, addressPrefix) {
		return "", model.ErrInvalidAddress
	}
	decoded, err := base58.Decode(raw[len(addressPrefix):])
	if err != nil || len(decoded) != blake2b.Size256 {
		return "", model.ErrInvalidAddress
	}
	return model.Address(raw), nil
}
