package entity

import (
	"errors"
	"fmt"
)

type Marketplace string

const (
	ZilDuckMarketplace Marketplace = "ZilDuck"
)

// Fee rates are expressed in parts of FeeDenominator, so 1000 is 1% and 10000 is 10%.
const (
	FeeDenominator uint = 100000
	MaxFeeBps      uint = 10000
)

var (
	ErrFeeTooHigh       = errors.New("fee exceeds the maximum rate")
	ErrInvalidRecipient = errors.New("fee recipient is required")
)

type FeeConfig struct {
	PlatformFeeBps uint   `json:"platformFeeBps"`
	FeeRecipient   string `json:"feeRecipient"`
}

func (c FeeConfig) Validate() error {
	if err := ValidateFeeBps(c.PlatformFeeBps); err != nil {
		return err
	}
	if c.PlatformFeeBps != 0 && c.FeeRecipient == "" {
		return ErrInvalidRecipient
	}

	return nil
}

type Royalty struct {
	Bps       uint   `json:"bps"`
	Recipient string `json:"recipient"`
}

func (r Royalty) Validate() error {
	if err := ValidateFeeBps(r.Bps); err != nil {
		return err
	}
	if r.Bps != 0 && r.Recipient == "" {
		return ErrInvalidRecipient
	}

	return nil
}

func ValidateFeeBps(bps uint) error {
	if bps > MaxFeeBps {
		return fmt.Errorf("%w: %d > %d", ErrFeeTooHigh, bps, MaxFeeBps)
	}

	return nil
}
