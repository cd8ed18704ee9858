package app

import (
	"fmt"
	"sync"

	"github.com/finboard/finboard/internal/aggregator"
	authService "github.com/finboard/finboard/internal/auth/service"
	"github.com/finboard/finboard/internal/database"
	linkingHTTP "github.com/finboard/finboard/internal/linking/http"
	linkingRepository "github.com/finboard/finboard/internal/linking/repository"
	linkingUseCase "github.com/finboard/finboard/internal/linking/usecase"
)

type linkingComponents struct {
	aggregatorAPI aggregator.API
	itemRepo      linkingUseCase.ItemRepository
	itemUseCase   linkingUseCase.ItemUseCase
	itemHandler   *linkingHTTP.ItemHandler
	tokenVerifier authService.TokenVerifier

	credentialVerifier linkingUseCase.ItemUseCase

	aggregatorInit    sync.Once
	itemRepoInit      sync.Once
	itemUseCaseInit   sync.Once
	itemHandlerInit   sync.Once
	tokenVerifierInit sync.Once

	credentialVerifierInit sync.Once
}

// Aggregator returns the financial-data API client, decorated with metrics.
func (c *Container) Aggregator() (aggregator.API, error) {
	err := c.initOnce(&c.aggregatorInit, "aggregator", func() error {
		if c.config.PlaidClientID == "" || c.config.PlaidSecret == "" {
			return fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET must be set")
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		client := aggregator.NewClient(aggregator.Config{
			ClientID:       c.config.PlaidClientID,
			Secret:         c.config.PlaidSecret,
			Environment:    c.config.PlaidEnv,
			BaseURL:        c.config.PlaidBaseURL,
			Timeout:        c.config.PlaidTimeout,
			MaxRetries:     c.config.PlaidMaxRetries,
			RequestsPerSec: c.config.PlaidRequestsPerSec,
		}, c.Logger())
		c.aggregatorAPI = aggregator.NewAPIWithMetrics(client, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.aggregatorAPI, nil
}

// ItemRepository returns the item repository for the configured driver.
func (c *Container) ItemRepository() (linkingUseCase.ItemRepository, error) {
	err := c.initOnce(&c.itemRepoInit, "itemRepo", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for item repository: %w", err)
		}
		switch c.config.DBDriver {
		case database.DriverMySQL:
			c.itemRepo = linkingRepository.NewMySQLItemRepository(db)
		case database.DriverPostgres:
			c.itemRepo = linkingRepository.NewPostgreSQLItemRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.itemRepo, nil
}

// ItemUseCase returns the linking use case, decorated with metrics.
func (c *Container) ItemUseCase() (linkingUseCase.ItemUseCase, error) {
	err := c.initOnce(&c.itemUseCaseInit, "itemUseCase", func() error {
		api, err := c.Aggregator()
		if err != nil {
			return fmt.Errorf("failed to get aggregator for item use case: %w", err)
		}
		c.itemUseCase, err = c.buildItemUseCase(api)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.itemUseCase, nil
}

// CredentialVerifier returns a linking use case without an aggregator client. Only
// VerifyCredentials may be called on it, so maintenance commands run without aggregator
// credentials.
func (c *Container) CredentialVerifier() (linkingUseCase.ItemUseCase, error) {
	err := c.initOnce(&c.credentialVerifierInit, "credentialVerifier", func() error {
		var err error
		c.credentialVerifier, err = c.buildItemUseCase(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.credentialVerifier, nil
}

func (c *Container) buildItemUseCase(api linkingUseCase.Aggregator) (linkingUseCase.ItemUseCase, error) {
	sealer, err := c.Sealer()
	if err != nil {
		return nil, fmt.Errorf("failed to get sealer for item use case: %w", err)
	}
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for item use case: %w", err)
	}
	itemRepo, err := c.ItemRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get item repository for item use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := linkingUseCase.NewItemUseCase(txManager, itemRepo, api, sealer, c.Logger())
	return linkingUseCase.NewItemUseCaseWithMetrics(useCase, businessMetrics), nil
}

// ItemHandler returns the HTTP handler for linked items.
func (c *Container) ItemHandler() (*linkingHTTP.ItemHandler, error) {
	err := c.initOnce(&c.itemHandlerInit, "itemHandler", func() error {
		useCase, err := c.ItemUseCase()
		if err != nil {
			return err
		}
		c.itemHandler = linkingHTTP.NewItemHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.itemHandler, nil
}

// TokenVerifier returns the bearer token verifier.
func (c *Container) TokenVerifier() (authService.TokenVerifier, error) {
	err := c.initOnce(&c.tokenVerifierInit, "tokenVerifier", func() error {
		if c.config.AuthJWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET must be set")
		}
		c.tokenVerifier = authService.NewJWTVerifier(c.config.AuthJWTSecret, c.config.AuthJWTAudience)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenVerifier, nil
}
