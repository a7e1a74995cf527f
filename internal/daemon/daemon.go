package daemon

import (
	"context"
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/indexer"
	"github.com/ZilDuck/zilliqa-marketplace/internal/messenger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"go.uber.org/zap"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

type Daemon struct {
	server          api.Server
	events          *event.Manager
	importer        custody.ChainImporter
	collections     []string
	port            string
	persistInterval time.Duration

	elastic   elastic_search.Index
	indexer   indexer.MarketplaceIndexer
	messenger messenger.MessageService
}

type Option func(d *Daemon)

// WithImporter seeds custody with the collections' on-chain state before serving.
func WithImporter(importer custody.ChainImporter, collections []string) Option {
	return func(d *Daemon) {
		d.importer = importer
		d.collections = collections
	}
}

// WithIndexer projects marketplace activity into elastic.
func WithIndexer(elastic elastic_search.Index, indexer indexer.MarketplaceIndexer) Option {
	return func(d *Daemon) {
		d.elastic = elastic
		d.indexer = indexer
	}
}

func WithMessenger(messenger messenger.MessageService) Option {
	return func(d *Daemon) {
		d.messenger = messenger
	}
}

func WithPersistInterval(interval time.Duration) Option {
	return func(d *Daemon) {
		d.persistInterval = interval
	}
}

func NewDaemon(server api.Server, events *event.Manager, port string, opts ...Option) *Daemon {
	d := &Daemon{
		server:          server,
		events:          events,
		port:            port,
		persistInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Execute seeds custody from chain, wires the event listeners and serves the api until ctx is done.
func (d *Daemon) Execute(ctx context.Context) error {
	d.importCollections()
	d.subscribe()

	if d.elastic != nil {
		go d.persistLoop(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + d.port,
		Handler: d.server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().With(zap.String("port", d.port)).Info("Marketplace Started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			zap.L().With(zap.Error(err)).Error("Failed to start marketplace")
			return err
		}
	case <-ctx.Done():
		zap.L().Info("Marketplace shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to shut down marketplace")
		}
	}

	if d.elastic != nil {
		d.elastic.Persist()
	}

	return nil
}

func (d *Daemon) importCollections() {
	if d.importer == nil {
		return
	}
	for _, collection := range d.collections {
		tokens, err := d.importer.ImportCollection(collection)
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("collection", collection)).Error("Failed to import collection")
			continue
		}
		zap.L().With(zap.String("collection", collection), zap.Int("tokens", tokens)).Info("Collection imported")
	}
}

func (d *Daemon) subscribe() {
	metrics.Subscribe(d.events)

	if d.indexer != nil {
		if err := d.elastic.InstallMappings(); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to install mappings")
		}
		d.indexer.Subscribe(d.events)
	}

	if d.messenger != nil {
		messenger.NewNotifier(d.messenger).Subscribe(d.events)
	}
}

func (d *Daemon) persistLoop(ctx context.Context) {
	ticker := time.NewTicker(d.persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.elastic.Persist()
		}
	}
}
