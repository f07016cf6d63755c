/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	golog "log"
	"net/http"

	"github.com/acronis/go-appkit/config"
	"github.com/acronis/go-appkit/httpserver/middleware"
	"github.com/acronis/go-appkit/log"

	introspectionserver "github.com/datahive/introspection-server"
	"github.com/datahive/introspection-server/introspection"
)

const (
	serviceErrorDomain  = "IntrospectionServer"
	serviceEnvVarPrefix = "INTROSPECTION_SERVER"
)

func main() {
	if err := runApp(); err != nil {
		golog.Fatal(err)
	}
}

func runApp() error {
	cfg := NewAppConfig()
	if err := config.NewDefaultLoader(serviceEnvVarPrefix).LoadFromFile("config.yml", config.DataTypeYAML, cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	backend, err := introspectionserver.NewStorageBackend(context.Background(), cfg.Srv)
	if err != nil {
		return fmt.Errorf("create storage backend: %w", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			logger.Error("failed to close storage backend", log.Error(closeErr))
		}
	}()

	engine, err := introspectionserver.NewIntrospectionEngine(cfg.Srv, backend, introspection.EngineOpts{})
	if err != nil {
		return fmt.Errorf("create introspection engine: %w", err)
	}

	router := introspectionserver.NewRouter(serviceErrorDomain, engine,
		introspectionserver.RouterOpts{PathPrefix: cfg.Srv.Server.PathPrefix})

	srvHandler := middleware.RequestID()(middleware.Logging(logger)(router))
	logger.Info("starting HTTP server", log.String("address", cfg.Srv.Server.Address))
	if err = http.ListenAndServe(cfg.Srv.Server.Address, srvHandler); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve HTTP: %w", err)
	}

	return nil
}

type AppConfig struct {
	Srv *introspectionserver.Config
	Log *log.Config
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log: log.NewConfig(log.WithKeyPrefix("log")),
		Srv: introspectionserver.NewConfig(),
	}
}

func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

func (c *AppConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}
