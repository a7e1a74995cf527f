package entity

import (
	"encoding/hex"
	"errors"
	"github.com/Zilliqa/gozilliqa-sdk/bech32"
	"strings"
)

const addressLength = 20

type Entity interface {
	Slug() string
}

var (
	ErrInvalidAddress = errors.New("invalid address")
)

// NormalizeAddress returns the lower case base16 form of a bech32 or base16 address.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrInvalidAddress
	}

	if strings.HasPrefix(strings.ToLower(address), "zil1") {
		base16, err := bech32.FromBech32Addr(address)
		if err != nil {
			return "", ErrInvalidAddress
		}
		address = base16
	}

	address = strings.ToLower(address)
	address = strings.TrimPrefix(address, "0x")
	if decoded, err := hex.DecodeString(address); err != nil || len(decoded) != addressLength {
		return "", ErrInvalidAddress
	}

	return "0x" + address, nil
}

// MustNormalizeAddress is NormalizeAddress for trusted input, falling back to the lower-cased value.
func MustNormalizeAddress(address string) string {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return strings.ToLower(address)
	}
	return normalized
}
