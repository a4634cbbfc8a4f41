package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/orbita/internal/observability"
	"github.com/hrygo/orbita/internal/profile"
	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/agent"
	"github.com/hrygo/orbita/plugin/ai/agent/tools"
	"github.com/hrygo/orbita/plugin/ai/manager"
	"github.com/hrygo/orbita/plugin/ai/memory"
	"github.com/hrygo/orbita/plugin/ai/router"
	"github.com/hrygo/orbita/plugin/ai/session"
	"github.com/hrygo/orbita/plugin/calendar"
	"github.com/hrygo/orbita/plugin/mail"
	"github.com/hrygo/orbita/plugin/sepay"
	"github.com/hrygo/orbita/store"
	"github.com/hrygo/orbita/store/db"
)

// memoryCacheTTL bounds how stale a cached memory namespace may be.
const memoryCacheTTL = 5 * time.Minute

// app holds the wired components of one orbita process.
type app struct {
	profile      *profile.Profile
	store        *store.Store
	memory       memory.Store
	conversation *manager.Conversation
	metrics      *observability.Metrics
}

func (a *app) Close() error {
	return a.store.Close()
}

// openStore opens and migrates the database described by prof.
func openStore(ctx context.Context, prof *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(prof)
	if err != nil {
		return nil, err
	}
	s := store.New(driver, prof)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return s, nil
}

// newApp wires profile → store → LLM → router → handlers → manager.
// llm overrides the profile's model when non-nil.
func newApp(ctx context.Context, prof *profile.Profile, llm ai.LLMService) (*app, error) {
	s, err := openStore(ctx, prof)
	if err != nil {
		return nil, err
	}
	a := &app{
		profile: prof,
		store:   s,
		memory:  memory.NewPersistentStore(s, memoryCacheTTL),
		metrics: observability.NewMetrics(),
	}

	if llm == nil {
		cfg := ai.NewLLMConfigFromProfile(prof)
		if err := cfg.Validate(); err != nil {
			_ = s.Close()
			return nil, errors.Wrap(err, "invalid LLM configuration")
		}
		if llm, err = ai.NewLLMService(cfg); err != nil {
			_ = s.Close()
			return nil, errors.Wrap(err, "failed to create LLM service")
		}
	}

	rules, err := router.CompileRules(prof.RouterRules)
	if err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "invalid router rules")
	}

	handlers, err := buildHandlers(ctx, prof, s, llm, a.metrics)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	updater := memory.NewUpdater(a.memory, memory.NewLLMExtractor(llm),
		memory.WithPolicy(memory.UpdatePolicy(prof.MemoryUpdatePolicy)))
	m := manager.NewWithUpdater(
		router.NewService(llm, router.WithRules(rules)),
		memory.NewLoader(a.memory),
		updater,
		manager.WithHandlers(handlers...),
		manager.WithMetrics(a.metrics),
		manager.WithRequireUserID(prof.RequireUserID),
	)
	a.conversation = manager.NewConversation(m, session.NewStoreCheckpointService(s))
	return a, nil
}

// buildHandlers creates every handler whose backend is configured. Routes
// without a handler are answered with a plain apology by the manager.
func buildHandlers(ctx context.Context, prof *profile.Profile, s *store.Store, llm ai.LLMService, metrics *observability.Metrics) ([]agent.Handler, error) {
	// Tool calls are attempted once. The model sees the error and decides
	// whether to call again.
	opts := []agent.Option{agent.WithExecutor(tools.NewResilientToolExecutor(metrics, tools.WithMaxRetries(0)))}
	loc := calendar.LoadLocation(prof.CalendarTimezone)
	var handlers []agent.Handler

	if prof.EmailAddress != "" {
		client, err := mail.NewClient(&mail.Config{
			IMAPAddr: prof.IMAPAddr,
			SMTPAddr: prof.SMTPAddr,
			Address:  prof.EmailAddress,
			Password: prof.EmailAppPassword,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to configure mailbox")
		}
		h, err := agent.NewEmailHandler(llm, client, opts...)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	} else {
		slog.Warn("email handler disabled: ORBITA_EMAIL_ADDRESS is not set")
	}

	if prof.SePayAPIToken != "" {
		client, err := sepay.NewClient(prof.SePayBaseURL, prof.SePayAPIToken, sepay.WithLocation(loc))
		if err != nil {
			return nil, errors.Wrap(err, "failed to configure SePay")
		}
		h, err := agent.NewBudgetHandler(llm, client, prof.SePayAccount, opts...)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	} else {
		slog.Warn("budget handler disabled: ORBITA_SEPAY_API_TOKEN is not set")
	}

	var calendarSvc calendar.Service
	switch prof.CalendarBackend {
	case "google":
		svc, err := calendar.NewGoogleServiceFromFiles(ctx, prof.GoogleClientSecretFile, prof.GoogleTokenFile, loc)
		if err != nil {
			return nil, errors.Wrap(err, "failed to configure Google Calendar")
		}
		calendarSvc = svc
	default:
		calendarSvc = calendar.NewLocalService(s, loc)
	}
	h, err := agent.NewCalendarHandler(llm, calendarSvc, loc, nil, opts...)
	if err != nil {
		return nil, err
	}
	handlers = append(handlers, h)

	return handlers, nil
}
