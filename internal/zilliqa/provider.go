package zilliqa

import (
	"encoding/json"
	"strings"
)

type Provider struct {
	rpcClient *rpcClient
}

type BalanceAndNonce struct {
	Balance string `json:"balance"`
	Nonce   int64  `json:"nonce"`
}

func NewProvider(rpcClient *rpcClient) *Provider {
	return &Provider{rpcClient: rpcClient}
}

func (p *Provider) GetNetworkId() (string, error) {
	response, err := p.rpcClient.call("GetNetworkId")
	if err != nil {
		return "", err
	}

	return response.ResultAsString(), nil
}

// Returns the current balance of an account, measured in the smallest accounting unit Qa (or 10^-12 Zil).
func (p *Provider) GetBalance(address string) (*BalanceAndNonce, error) {
	response, err := p.rpcClient.call("GetBalance", strip0x(address))
	if err != nil {
		return nil, err
	}

	balanceAndNonce := BalanceAndNonce{Balance: "0"}
	if err := json.Unmarshal(response.Result, &balanceAndNonce); err != nil {
		return nil, err
	}

	return &balanceAndNonce, nil
}

// GetSmartContractSubState returns the raw value of a single contract field, optionally narrowed by map indices.
func (p *Provider) GetSmartContractSubState(contractAddr, field string, indices []string) (json.RawMessage, error) {
	if indices == nil {
		indices = []string{}
	}

	response, err := p.rpcClient.call("GetSmartContractSubState", strip0x(contractAddr), field, indices)
	if err != nil {
		return nil, err
	}

	if len(response.Result) == 0 || string(response.Result) == "null" {
		return nil, nil
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal(response.Result, &state); err != nil {
		return nil, err
	}

	return state[field], nil
}

func strip0x(address string) string {
	return strings.TrimPrefix(strings.ToLower(address), "0x")
}
