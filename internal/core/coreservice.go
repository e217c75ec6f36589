// Package core loads configuration and wires the shared service dependencies.
package core

import (
	"fmt"
	"log/slog"
	"os"

	"radarview/internal/store"
)

// CoreService holds the dependencies shared by the fetcher and the API server.
type CoreService struct {
	config       *ServiceConfig
	productStore store.ProductStore
	products     map[string]*ProductConfig
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	productStore, err := getProductStore(config)
	if err != nil {
		return nil, err
	}

	products := make(map[string]*ProductConfig, len(config.Products))
	for i := range config.Products {
		product := &config.Products[i]
		products[product.Name] = product

		for _, dir := range []string{config.RawDir(product.Name), config.PNGDir(product.Name)} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
			}
		}
	}

	return &CoreService{
		config:       config,
		productStore: productStore,
		products:     products,
	}, nil
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

func (service *CoreService) Store() store.ProductStore {
	return service.productStore
}

// Product looks up a configured product by name.
func (service *CoreService) Product(name string) (*ProductConfig, bool) {
	product, ok := service.products[name]
	return product, ok
}

func (service *CoreService) Close() error {
	return service.productStore.Close()
}

func getProductStore(config *ServiceConfig) (store.ProductStore, error) {
	productStore, err := store.NewStore(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return productStore, nil
}
