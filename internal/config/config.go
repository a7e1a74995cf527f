package config

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	stdlog "log"
	"math/big"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env     string
	Network string
	Index   string
	Debug   bool
	LogPath string
	Reindex bool

	Marketplace   MarketplaceConfig
	Store         StoreConfig
	Api           ApiConfig
	Zilliqa       ZilliqaConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
}

type MarketplaceConfig struct {
	Address        string
	PlatformFeeBps uint
	FeeRecipient   string
	Collections    []string
}

type StoreConfig struct {
	Driver string
	Path   string
}

type ApiConfig struct {
	Url        string
	Port       string
	AdminToken string
}

type AwsConfig struct {
	AccessKey   string
	SecretKey   string
	Region      string
	QueuePrefix string
	Endpoint    string
}

type ZilliqaConfig struct {
	Url     string
	Debug   bool
	Timeout int
}

type ElasticSearchConfig struct {
	Enabled          bool
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

const (
	MemoryStore = "memory"
	BoltStore   = "bolt"
)

func Init() {
	if err := godotenv.Load(".env"); err != nil {
		zap.L().With(zap.Error(err)).Warn("No .env file loaded")
	}

	initLogger()
}

func initLogger() {
	cfg := Get()
	err := log.NewLogger(cfg.LogPath, cfg.Debug, zap.String("env", cfg.Env), zap.String("network", cfg.Network))
	if err != nil {
		stdlog.Fatalf("Failed to open log file %s: %v", cfg.LogPath, err)
	}
}

func Get() *Config {
	return &Config{
		Env:     getString("ENV", ""),
		Network: getString("NETWORK", "zilliqa"),
		Index:   getString("INDEX_NAME", "marketplace"),
		Debug:   getBool("DEBUG", false),
		LogPath: getString("LOG_PATH", "marketplace.log"),
		Reindex: getBool("REINDEX", false),
		Marketplace: MarketplaceConfig{
			Address:        getString("MARKETPLACE_ADDRESS", ""),
			PlatformFeeBps: getUint("PLATFORM_FEE_BPS", 0),
			FeeRecipient:   getString("FEE_RECIPIENT", ""),
			Collections:    getSlice("COLLECTIONS", make([]string, 0), ","),
		},
		Store: StoreConfig{
			Driver: getString("STORE_DRIVER", MemoryStore),
			Path:   getString("STORE_PATH", "./var/data"),
		},
		Api: ApiConfig{
			Url:        getString("API_URL", "http://localhost:8080"),
			Port:       getString("API_PORT", "8080"),
			AdminToken: getString("ADMIN_TOKEN", ""),
		},
		Aws: AwsConfig{
			AccessKey:   getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey:   getString("AWS_SECRET_KEY_ID", ""),
			Region:      getString("AWS_REGION", ""),
			QueuePrefix: getString("SQS_QUEUE_PREFIX", ""),
			Endpoint:    getString("AWS_ENDPOINT", ""),
		},
		Zilliqa: ZilliqaConfig{
			Url:     getString("ZILLIQA_URL", ""),
			Timeout: getInt("ZILLIQA_TIMEOUT", 30),
			Debug:   getBool("ZILLIQA_DEBUG", false),
		},
		ElasticSearch: ElasticSearchConfig{
			Enabled:          getBool("ELASTIC_SEARCH_ENABLED", false),
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "/data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
	}
}

// QueuesEnabled reports whether settlement notifications should be published to SQS.
func (c Config) QueuesEnabled() bool {
	return c.Aws.Region != "" && c.Aws.QueuePrefix != ""
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint(key string, defaultValue uint) uint {
	val := getInt(key, int(defaultValue))
	if val < 0 {
		return defaultValue
	}
	return uint(val)
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
