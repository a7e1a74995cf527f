package zilliqa

import (
	"encoding/json"
	"errors"
	"go.uber.org/zap"
)

var (
	ErrFieldNotFound = errors.New("contract field not found")
)

type Service interface {
	GetNetworkId() (string, error)
	GetBalance(address string) (*BalanceAndNonce, error)
	GetContractSubState(contractAddress, field string, indices ...string) (json.RawMessage, error)
}

type service struct {
	provider *Provider
}

func NewZilliqaService(provider *Provider) Service {
	return service{provider}
}

func (s service) GetNetworkId() (string, error) {
	return s.provider.GetNetworkId()
}

func (s service) GetBalance(address string) (*BalanceAndNonce, error) {
	return s.provider.GetBalance(address)
}

func (s service) GetContractSubState(contractAddress, field string, indices ...string) (json.RawMessage, error) {
	state, err := s.provider.GetSmartContractSubState(contractAddress, field, indices)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("contract", contractAddress), zap.String("field", field)).
			Warn("Zilliqa: Failed to get contract sub state")
		return nil, err
	}
	if state == nil {
		return nil, ErrFieldNotFound
	}

	return state, nil
}
