package custody

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/zilliqa"
	"go.uber.org/zap"
	"strconv"
)

// zrc6FeeDenominator is the denominator ZRC6 contracts use for royalty_fee_bps.
const zrc6FeeDenominator uint = 10000

type ChainImporter interface {
	ImportCollection(collection string) (int, error)
}

type chainImporter struct {
	zilliqa zilliqa.Service
	ledger  *Ledger
}

func NewChainImporter(zilliqa zilliqa.Service, ledger *Ledger) ChainImporter {
	return chainImporter{zilliqa, ledger}
}

// ImportCollection copies token owners, spenders, operators and royalty settings of a ZRC6 contract into the ledger.
func (i chainImporter) ImportCollection(collection string) (int, error) {
	collection, err := entity.NormalizeAddress(collection)
	if err != nil {
		return 0, err
	}

	owners, err := i.stringMap(collection, "token_owners")
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("collection", collection)).Error("ChainImporter: Failed to get token owners")
		return 0, err
	}

	imported := 0
	for id, owner := range owners {
		tokenId, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			zap.L().With(zap.String("collection", collection), zap.String("tokenId", id)).Warn("ChainImporter: Invalid token id")
			continue
		}
		i.ledger.Mint(collection, tokenId, owner)
		imported++
	}

	spenders, err := i.stringMap(collection, "spenders")
	if err != nil && !errors.Is(err, zilliqa.ErrFieldNotFound) {
		return imported, err
	}
	for id, spender := range spenders {
		tokenId, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		if err := i.ledger.Approve(collection, tokenId, owners[id], spender); err != nil {
			zap.L().With(zap.Error(err), zap.String("collection", collection), zap.Uint64("tokenId", tokenId)).
				Warn("ChainImporter: Failed to import spender")
		}
	}

	if err := i.importOperators(collection); err != nil && !errors.Is(err, zilliqa.ErrFieldNotFound) {
		return imported, err
	}

	royalty, err := i.royalty(collection)
	if err != nil {
		return imported, err
	}
	if err := i.ledger.SetRoyalty(collection, royalty); err != nil {
		zap.L().With(zap.Error(err), zap.String("collection", collection), zap.Uint("bps", royalty.Bps)).
			Error("ChainImporter: Royalty rejected")
		return imported, err
	}

	zap.L().With(zap.String("collection", collection), zap.Int("tokens", imported), zap.Uint("royaltyBps", royalty.Bps)).
		Info("ChainImporter: Imported collection")

	return imported, nil
}

func (i chainImporter) importOperators(collection string) error {
	raw, err := i.zilliqa.GetContractSubState(collection, "operators")
	if err != nil {
		return err
	}

	var operators map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &operators); err != nil {
		return fmt.Errorf("operators: %w", err)
	}

	for owner, approved := range operators {
		for operator, value := range approved {
			i.ledger.SetOperator(owner, operator, isTrue(value))
		}
	}

	return nil
}

func (i chainImporter) royalty(collection string) (entity.Royalty, error) {
	royalty := entity.Royalty{}

	raw, err := i.zilliqa.GetContractSubState(collection, "royalty_fee_bps")
	if errors.Is(err, zilliqa.ErrFieldNotFound) {
		return royalty, nil
	}
	if err != nil {
		return royalty, err
	}

	var bps string
	if err := json.Unmarshal(raw, &bps); err != nil {
		return royalty, fmt.Errorf("royalty_fee_bps: %w", err)
	}
	zrc6Bps, err := strconv.ParseUint(bps, 10, 64)
	if err != nil {
		return royalty, fmt.Errorf("royalty_fee_bps: %w", err)
	}
	royalty.Bps = uint(zrc6Bps) * (entity.FeeDenominator / zrc6FeeDenominator)

	raw, err = i.zilliqa.GetContractSubState(collection, "royalty_recipient")
	if err != nil {
		return royalty, err
	}
	if err := json.Unmarshal(raw, &royalty.Recipient); err != nil {
		return royalty, fmt.Errorf("royalty_recipient: %w", err)
	}

	return royalty, nil
}

func (i chainImporter) stringMap(collection, field string) (map[string]string, error) {
	raw, err := i.zilliqa.GetContractSubState(collection, field)
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}

	return values, nil
}

func isTrue(raw json.RawMessage) bool {
	value, err := zilliqa.ParseValue(raw)
	if err != nil {
		return false
	}

	return value.Bool()
}
