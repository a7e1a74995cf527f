package elastic_search

import (
	"context"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Index interface {
	InstallMappings() error

	AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction)
	HasRequest(entity entity.Entity) bool
	GetRequests() []Request
	GetRequest(id string) *Request
	ClearRequests()

	BatchPersist() bool
	Persist() int
}

type index struct {
	client       *elastic.Client
	cache        *cache.Cache
	refresh      string
	persistCount int
}

type Request struct {
	Index  string
	Entity entity.Entity
	Type   RequestType
	Action RequestAction
}

type RequestType string

const (
	IndexRequest RequestType = "index"
)

type RequestAction string

const (
	NftAction            RequestAction = "NftAction"
	SettlementCreate     RequestAction = "SettlementCreate"
	ReconciliationCreate RequestAction = "ReconciliationCreate"
)

const (
	batchSize    = 250
	saveAttempts = 3
)

func New() (Index, error) {
	client, err := newClient()
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to create client")
		return nil, err
	}

	return newIndex(client, config.Get().ElasticSearch.Refresh, config.Get().ElasticSearch.BulkPersistCount), nil
}

func newIndex(client *elastic.Client, refresh string, persistCount int) index {
	return index{
		client:       client,
		cache:        cache.New(cache.NoExpiration, 10*time.Minute),
		refresh:      refresh,
		persistCount: persistCount,
	}
}

func newClient() (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(strings.Join(config.Get().ElasticSearch.Hosts, ",")),
		elastic.SetSniff(config.Get().ElasticSearch.Sniff),
		elastic.SetHealthcheck(config.Get().ElasticSearch.HealthCheck),
	}

	if config.Get().ElasticSearch.Debug {
		opts = append(opts, elastic.SetTraceLog(ElasticLogger{}))
	}

	if config.Get().ElasticSearch.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(
			config.Get().ElasticSearch.Username,
			config.Get().ElasticSearch.Password,
		))
	}

	return elastic.NewClient(opts...)
}

func (i index) InstallMappings() error {
	zap.L().Info("ElasticSearch: Install Mappings")

	dir := config.Get().ElasticSearch.MappingDir
	files, err := os.ReadDir(dir)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("dir", dir)).Error("ElasticSearch: Elastic mappings directory error")
		return err
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("file", f.Name())).Error("ElasticSearch: Elastic mappings file error")
			return err
		}

		name := Indices(strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())))
		if err = i.createIndex(name.Get(), b); err != nil {
			zap.L().With(zap.Error(err), zap.String("index", name.Get())).Error("ElasticSearch: Failed to create index")
			return err
		}
	}

	return nil
}

func (i index) createIndex(index string, mapping []byte) error {
	ctx := context.Background()
	client := i.client

	exists, err := client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}

	if exists && config.Get().Reindex {
		zap.S().Infof("ElasticSearch: Deleting index %s", index)
		if _, err = client.DeleteIndex(index).Do(ctx); err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		createIndex, err := client.CreateIndex(index).BodyString(string(mapping)).Do(ctx)
		if err != nil {
			return err
		}

		if createIndex.Acknowledged {
			zap.S().Infof("ElasticSearch: Created index %s", index)
		}
	}

	return nil
}

func (i index) AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticSearch: AddIndexRequest")

	i.cache.Set(entity.Slug(), Request{index, entity, IndexRequest, reqAction}, cache.DefaultExpiration)
}

func (i index) HasRequest(entity entity.Entity) bool {
	_, found := i.cache.Get(entity.Slug())

	return found
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) GetRequest(id string) *Request {
	if item, found := i.cache.Get(id); found {
		req := item.(Request)
		return &req
	}

	return nil
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

func (i index) BatchPersist() bool {
	if i.cache.ItemCount() < batchSize {
		return false
	}

	actions := i.cache.ItemCount()
	start := time.Now()
	i.Persist()

	zap.L().With(
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("actions", actions),
	).Info("ElasticSearch: Persisting data")

	return true
}

func (i index) Persist() int {
	requests := i.GetRequests()
	if len(requests) == 0 {
		return 0
	}

	persisted := 0
	bulk := i.client.Bulk()
	for _, r := range requests {
		bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))

		if bulk.NumberOfActions() >= i.persistCount {
			persisted += i.persist(bulk)
			bulk = i.client.Bulk()
		}
	}

	if bulk.NumberOfActions() != 0 {
		persisted += i.persist(bulk)
	}

	return persisted
}

func (i index) persist(bulk *elastic.BulkService) int {
	actions := bulk.NumberOfActions()
	zap.S().Debugf("ElasticSearch: Persisting %d actions", actions)

	response, err := bulk.Refresh(i.refresh).Do(context.Background())
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to persist requests, keeping them buffered")
		return 0
	}

	for _, succeeded := range response.Succeeded() {
		i.cache.Delete(succeeded.Id)
	}

	for _, failed := range response.Failed() {
		zap.L().With(
			zap.Any("error", failed.Error),
			zap.String("index", failed.Index),
			zap.String("id", failed.Id),
		).Error("ElasticSearch: Failed to persist request. Retrying...")

		if req := i.GetRequest(failed.Id); req != nil {
			i.save(req.Index, req.Entity, 1)
		}
	}

	return actions
}

func (i index) save(index string, entity entity.Entity, attempt int) {
	if attempt > saveAttempts {
		zap.L().With(zap.String("index", index), zap.String("slug", entity.Slug())).
			Error("ElasticSearch: Failed to save entity, Too many attempts")
		return
	}

	_, err := i.client.Index().
		Index(index).
		Id(entity.Slug()).
		BodyJson(entity).
		Do(context.Background())

	if err != nil {
		zap.L().With(zap.Error(err), zap.String("index", index), zap.String("slug", entity.Slug())).
			Error("ElasticSearch: Failed to save entity")
		time.Sleep(time.Duration(attempt) * time.Second)

		i.save(index, entity, attempt+1)
		return
	}

	i.cache.Delete(entity.Slug())
}
