package elastic_search

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/log"
	"go.uber.org/zap"
)

type ElasticLogger struct{}

func (l ElasticLogger) Printf(format string, v ...interface{}) {
	zap.S().Debugf("ElasticSearch: "+format, v...)
}

var _ log.Logger = ElasticLogger{}
