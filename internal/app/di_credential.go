package app

import (
	"context"
	"fmt"
	"sync"

	credentialService "github.com/finboard/finboard/internal/credential/service"
)

type credentialComponents struct {
	kmsService credentialService.KMSService
	keyStore   *credentialService.KeyStore
	sealer     credentialService.Sealer

	kmsServiceInit sync.Once
	keyStoreInit   sync.Once
	sealerInit     sync.Once
}

// KMSService returns the KMS service used to unwrap a KMS-protected encryption key.
func (c *Container) KMSService() credentialService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = credentialService.NewKMSService()
	})
	return c.kmsService
}

// KeyStore returns the process-wide encryption key store.
//
// The key is loaded and validated here, not on first use, so a missing or invalid key stops
// startup. The store is created once; later calls return the same store or the same error.
func (c *Container) KeyStore() (*credentialService.KeyStore, error) {
	err := c.initOnce(&c.keyStoreInit, "keyStore", func() error {
		loader := credentialService.KMSKeyLoader(
			context.Background(),
			c.KMSService(),
			c.config.EncryptionKeyKMSURI,
			c.config.EncryptionKey,
			c.Logger(),
		)
		store := credentialService.NewLazyKeyStore(loader, c.Logger())
		if err := store.Init(); err != nil {
			return fmt.Errorf("failed to initialize encryption key: %w", err)
		}
		c.keyStore = store
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.keyStore, nil
}

// Sealer returns the credential sealer, decorated with metrics.
func (c *Container) Sealer() (credentialService.Sealer, error) {
	err := c.initOnce(&c.sealerInit, "sealer", func() error {
		keys, err := c.KeyStore()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		c.sealer = credentialService.NewSealerWithMetrics(credentialService.NewAESGCMSealer(keys), businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sealer, nil
}
