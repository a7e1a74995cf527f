package di

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/daemon"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/indexer"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/messenger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"github.com/ZilDuck/zilliqa-marketplace/internal/zilliqa"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var (
	ErrElasticDisabled = errors.New("elastic search is disabled")
	ErrQueuesDisabled  = errors.New("queues are disabled")
	ErrUnknownStore    = errors.New("unknown store driver")
)

type Container struct {
	ctn di.Container
}

func NewContainer(cfg *config.Config) (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(Definitions(cfg)...); err != nil {
		return nil, err
	}

	return &Container{builder.Build()}, nil
}

func Definitions(cfg *config.Config) []di.Def {
	return []di.Def{
		{
			Name: "store",
			Build: func(ctn di.Container) (interface{}, error) {
				switch cfg.Store.Driver {
				case config.MemoryStore:
					return repository.NewMemoryStore(), nil
				case config.BoltStore:
					return repository.NewBoltStore(cfg.Store.Path)
				}
				return nil, ErrUnknownStore
			},
			Close: func(obj interface{}) error {
				return obj.(repository.Store).Close()
			},
		},
		{
			Name: "ledger",
			Build: func(ctn di.Container) (interface{}, error) {
				address, err := entity.NormalizeAddress(cfg.Marketplace.Address)
				if err != nil {
					return nil, err
				}
				return custody.NewLedger(address), nil
			},
		},
		{
			Name: "zilliqa",
			Build: func(ctn di.Container) (interface{}, error) {
				client, err := zilliqa.NewClient(cfg.Zilliqa.Url, cfg.Zilliqa.Timeout, cfg.Zilliqa.Debug)
				if err != nil {
					return nil, err
				}
				return zilliqa.NewZilliqaService(zilliqa.NewProvider(client)), nil
			},
		},
		{
			Name: "chain.importer",
			Build: func(ctn di.Container) (interface{}, error) {
				return custody.NewChainImporter(
					ctn.Get("zilliqa").(zilliqa.Service),
					ctn.Get("ledger").(*custody.Ledger),
				), nil
			},
		},
		{
			Name: "event.manager",
			Build: func(ctn di.Container) (interface{}, error) {
				return event.Default(), nil
			},
		},
		{
			Name: "engine",
			Build: func(ctn di.Container) (interface{}, error) {
				ledger := ctn.Get("ledger").(*custody.Ledger)
				return marketplace.NewEngine(
					ledger.Escrow(),
					ctn.Get("store").(repository.Store),
					ledger,
					ledger,
					ctn.Get("event.manager").(*event.Manager),
					entity.FeeConfig{
						PlatformFeeBps: cfg.Marketplace.PlatformFeeBps,
						FeeRecipient:   cfg.Marketplace.FeeRecipient,
					},
				)
			},
		},
		{
			Name: "elastic",
			Build: func(ctn di.Container) (interface{}, error) {
				if !cfg.ElasticSearch.Enabled {
					return nil, ErrElasticDisabled
				}
				return elastic_search.New()
			},
		},
		{
			Name: "marketplace.indexer",
			Build: func(ctn di.Container) (interface{}, error) {
				elastic, err := ctn.SafeGet("elastic")
				if err != nil {
					return nil, err
				}
				return indexer.NewMarketplaceIndexer(elastic.(elastic_search.Index)), nil
			},
		},
		{
			Name: "messenger",
			Build: func(ctn di.Container) (interface{}, error) {
				if !cfg.QueuesEnabled() {
					return nil, ErrQueuesDisabled
				}
				sess, err := messenger.NewSession(messenger.AwsConfig{
					Region:    cfg.Aws.Region,
					AccessKey: cfg.Aws.AccessKey,
					SecretKey: cfg.Aws.SecretKey,
					Endpoint:  cfg.Aws.Endpoint,
				})
				if err != nil {
					return nil, err
				}
				return messenger.NewMessenger(sqs.New(sess), cfg.Aws.QueuePrefix), nil
			},
		},
		{
			Name: "api.server",
			Build: func(ctn di.Container) (interface{}, error) {
				return api.NewServer(ctn.Get("engine").(marketplace.Engine), cfg.Api.AdminToken), nil
			},
		},
		{
			Name: "daemon",
			Build: func(ctn di.Container) (interface{}, error) {
				opts := make([]daemon.Option, 0)

				if importer, err := ctn.SafeGet("chain.importer"); err == nil {
					opts = append(opts, daemon.WithImporter(importer.(custody.ChainImporter), cfg.Marketplace.Collections))
				} else {
					zap.L().With(zap.Error(err)).Info("Chain import disabled")
				}

				if idx, err := ctn.SafeGet("marketplace.indexer"); err == nil {
					opts = append(opts, daemon.WithIndexer(
						ctn.Get("elastic").(elastic_search.Index),
						idx.(indexer.MarketplaceIndexer),
					))
				} else {
					zap.L().With(zap.Error(err)).Info("Activity indexing disabled")
				}

				if m, err := ctn.SafeGet("messenger"); err == nil {
					opts = append(opts, daemon.WithMessenger(m.(messenger.MessageService)))
				} else {
					zap.L().With(zap.Error(err)).Info("Settlement notifications disabled")
				}

				return daemon.NewDaemon(
					ctn.Get("api.server").(api.Server),
					ctn.Get("event.manager").(*event.Manager),
					cfg.Api.Port,
					opts...,
				), nil
			},
		},
	}
}

func (c *Container) GetStore() repository.Store {
	return c.ctn.Get("store").(repository.Store)
}

func (c *Container) GetLedger() *custody.Ledger {
	return c.ctn.Get("ledger").(*custody.Ledger)
}

func (c *Container) GetZilliqa() zilliqa.Service {
	return c.ctn.Get("zilliqa").(zilliqa.Service)
}

func (c *Container) SafeGetChainImporter() (custody.ChainImporter, error) {
	obj, err := c.ctn.SafeGet("chain.importer")
	if err != nil {
		return nil, err
	}
	return obj.(custody.ChainImporter), nil
}

func (c *Container) GetEventManager() *event.Manager {
	return c.ctn.Get("event.manager").(*event.Manager)
}

func (c *Container) GetEngine() marketplace.Engine {
	return c.ctn.Get("engine").(marketplace.Engine)
}

func (c *Container) SafeGetElastic() (elastic_search.Index, error) {
	obj, err := c.ctn.SafeGet("elastic")
	if err != nil {
		return nil, err
	}
	return obj.(elastic_search.Index), nil
}

func (c *Container) SafeGetMessenger() (messenger.MessageService, error) {
	obj, err := c.ctn.SafeGet("messenger")
	if err != nil {
		return nil, err
	}
	return obj.(messenger.MessageService), nil
}

func (c *Container) GetServer() api.Server {
	return c.ctn.Get("api.server").(api.Server)
}

func (c *Container) GetDaemon() *daemon.Daemon {
	return c.ctn.Get("daemon").(*daemon.Daemon)
}

// Delete closes every object built by the container.
func (c *Container) Delete() error {
	return c.ctn.Delete()
}
