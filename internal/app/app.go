// Package app wires configuration, logging, storage, the planner, and the
// HTTP API together and runs them under one supervisor.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"pland/internal/config"
	"pland/internal/eventbus"
	"pland/internal/httpapi"
	v1 "pland/internal/httpapi/v1"
	"pland/internal/janitor"
	"pland/internal/plan"
	"pland/internal/recorder"
	"pland/internal/runtime/supervisor"
	"pland/internal/storage"
	logx "pland/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	bus     eventbus.Bus
	store   storage.Store
	planner *plan.Planner
	rec     *recorder.Service
	jan     *janitor.Service

	serverCfg config.ServerConfig
	handler   http.Handler
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	planner := plan.New(log.With(logx.String("comp", "planner")))

	var rec *recorder.Service
	var jan *janitor.Service
	if store != nil {
		rec = recorder.New(store, bus, log.With(logx.String("comp", "recorder")))
		jan = janitor.New(store, bus, log.With(logx.String("comp", "janitor")))
		if cfg.Janitor != nil {
			if err := jan.Apply(*cfg.Janitor); err != nil {
				return nil, err
			}
		}
	}

	handler := httpapi.NewHandler(cfg.Server, &v1.Handlers{
		Planner:  planner,
		Store:    store,
		Bus:      bus,
		Defaults: cfg.Planner,
		Log:      log.With(logx.String("comp", "http")),
	})

	return &App{
		cfgPath:   cfgPath,
		cfgm:      cfgm,
		log:       log,
		logs:      logSvc,
		bus:       bus,
		store:     store,
		planner:   planner,
		rec:       rec,
		jan:       jan,
		serverCfg: cfg.Server,
		handler:   handler,
	}, nil
}

// Done is closed when the supervisor context is canceled (fatal error or
// Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	a.sup.Go("http.serve", func(c context.Context) error {
		return httpapi.Serve(c, a.serverCfg, a.handler, a.log.With(logx.String("comp", "http")))
	})

	if a.rec != nil {
		a.sup.Go("recorder", a.rec.Run)
	}
	if a.jan != nil {
		if err := a.jan.Start(); err != nil {
			a.sup.Cancel()
			return err
		}
	}

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
		return nil
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("started", logx.String("addr", a.serverCfg.Addr))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if a.jan != nil {
		a.jan.Stop(ctx)
	}

	var err error
	if a.sup != nil {
		wctx := ctx
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			wctx, cancel = context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
		}
		err = a.sup.Stop(wctx)
	}

	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return err
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections := config.ChangedSections(lastApplied, newCfg)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			a.log.Info("config changed", logx.String("sections", strings.Join(sections, ",")))
			lastApplied = newCfg

			for _, s := range sections {
				switch s {
				case "logging":
					a.logs.Apply(logx.Config{
						Level:   newCfg.Logging.Level,
						Console: newCfg.Logging.Console,
						File: logx.FileConfig{
							Enabled: newCfg.Logging.File.Enabled,
							Path:    newCfg.Logging.File.Path,
						},
					})
				case "janitor":
					if a.jan != nil && newCfg.Janitor != nil {
						if err := a.jan.Apply(*newCfg.Janitor); err != nil {
							a.log.Warn("invalid janitor config; keeping previous", logx.Err(err))
						}
					}
				case "server", "storage":
					a.log.Warn("config changed; restart required for changes to take effect",
						logx.String("section", s))
				}
			}
		}
	}
}

// validateConfig rejects a config before it is committed or published to
// subscribers, so a bad hot-reload never reaches the services.
func validateConfig(cfg *config.Config) error {
	if _, err := config.ParseDurationField("server.read_timeout", cfg.Server.ReadTimeout); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("server.write_timeout", cfg.Server.WriteTimeout); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("server.idle_timeout", cfg.Server.IdleTimeout); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("server.request_timeout", cfg.Server.RequestTimeout); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	if cfg.Janitor != nil {
		if _, err := config.ParseDurationField("janitor.retention", cfg.Janitor.Retention); err != nil {
			return err
		}
		if spec := strings.TrimSpace(cfg.Janitor.Spec); spec != "" {
			if _, err := cron.ParseStandard(spec); err != nil {
				return err
			}
		}
	}
	return nil
}
