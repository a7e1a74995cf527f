package elastic_search

import (
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
)

type Indices string

var (
	NftActionIndex      Indices = "nftaction"
	SettlementIndex     Indices = "settlement"
	ReconciliationIndex Indices = "reconciliation"
)

// Sets the network and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(*i))
}
