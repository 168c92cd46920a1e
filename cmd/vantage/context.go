package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"vantage/internal/assets"
	"vantage/internal/blob"
	"vantage/internal/cache"
	"vantage/internal/client"
	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/session"
)

type commandContext struct {
	configFlag *string
	serverFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, serverFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil && strings.TrimSpace(*c.serverFlag) != "" {
			cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(*c.serverFlag), "/")
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiClient() (*client.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	httpc := &http.Client{Timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second}
	return client.New(cfg.Server.BaseURL, httpc, logging.NewNop()), nil
}

func (c *commandContext) assetManager() (*assets.Manager, error) {
	apiClient, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	return assets.NewManager(apiClient, logging.NewNop()), nil
}

// newSession wires the full synchronization stack for commands that need the
// cache and blob tiers. The returned cleanup closes both stores.
func (c *commandContext) newSession() (*session.Session, *blob.Store, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	apiClient, err := c.apiClient()
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := cache.Open(cfg.Paths.CacheDB)
	if err != nil {
		return nil, nil, nil, err
	}
	blobs := blob.New(cfg.Paths.BlobDB, logging.NewNop())
	manager := assets.NewManager(apiClient, logging.NewNop())

	sess := session.New(apiClient, store, blobs, manager, logging.NewNop())
	cleanup := func() {
		_ = store.Close()
		_ = blobs.Close()
	}
	return sess, blobs, cleanup, nil
}
