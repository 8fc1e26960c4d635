// Command waura-seed loads a JSON product file into the catalog index.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/catalog"
	"github.com/kaurinho-svg/waura-backend/internal/catalog/elastic"
	"github.com/kaurinho-svg/waura-backend/internal/catalog/memory"
	"github.com/kaurinho-svg/waura-backend/internal/catalog/redisearch"
	"github.com/kaurinho-svg/waura-backend/internal/config"
	"github.com/kaurinho-svg/waura-backend/internal/domain"
	logpkg "github.com/kaurinho-svg/waura-backend/internal/logger"
)

func main() {
	file := flag.String("file", "products.json", "path to a JSON array of products")
	batchSize := flag.Int("batch", 500, "products per bulk request")
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("Failed to read products file", zap.String("file", *file), zap.Error(err))
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		logger.Fatal("Failed to parse products file", zap.Error(err))
	}
	logger.Info("Loaded products file",
		zap.String("file", *file),
		zap.Int("count", len(products)),
	)

	engine := buildEngine(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := engine.Ping(ctx); err != nil {
		logger.Fatal("Catalog engine not reachable", zap.Error(err))
	}
	if err := engine.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure catalog schema", zap.Error(err))
	}

	for i := 0; i < len(products); i += *batchSize {
		end := i + *batchSize
		if end > len(products) {
			end = len(products)
		}
		if err := engine.BulkIndex(ctx, products[i:end]); err != nil {
			logger.Fatal("Bulk index failed",
				zap.Int("offset", i),
				zap.Error(err),
			)
		}
		logger.Info("Indexed batch", zap.Int("from", i), zap.Int("to", end))
	}

	logger.Info("Seeding complete", zap.Int("products", len(products)))
}

func buildEngine(cfg config.Config, logger *zap.Logger) catalog.Engine {
	switch cfg.Catalog.Driver {
	case "redisearch":
		eng, err := redisearch.New(redisearch.Config{
			Addrs:     cfg.Catalog.Addrs,
			Password:  cfg.Catalog.Password,
			IndexName: cfg.Catalog.IndexName,
			KeyPrefix: cfg.Catalog.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create redisearch engine", zap.Error(err))
		}
		return eng
	case "elasticsearch":
		eng, err := elastic.New(cfg.Catalog.URL, cfg.Catalog.IndexName, logger)
		if err != nil {
			logger.Fatal("Failed to create elasticsearch engine", zap.Error(err))
		}
		return eng
	case "memory":
		logger.Warn("Seeding the memory driver only lasts for this process")
		return memory.New()
	default:
		logger.Fatal("Unknown catalog driver", zap.String("driver", cfg.Catalog.Driver))
		return nil
	}
}
