package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/events"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/lifecycle"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

// api carries the collaborators every handler needs.
type api struct {
	cfg          Config
	store        *store.Store
	modules      *lifecycle.Manager
	runner       *generator.Runner
	dispatcher   *generator.Dispatcher
	hub          *events.Hub
	payments     PaymentLinker
	autoGenerate []catalog.ModuleType
	log          *zap.Logger
}

func newAPI(cfg Config, st *store.Store, gen generator.Generator, log *zap.Logger) (*api, error) {
	auto, err := cfg.autoGenerateModules()
	if err != nil {
		return nil, err
	}
	a := &api{
		cfg:          cfg,
		store:        st,
		modules:      lifecycle.New(st, log.Named("lifecycle")),
		runner:       generator.NewRunner(gen, cfg.GenerationTimeout, log.Named("generator")),
		hub:          events.NewHub(),
		payments:     staticLinker{base: cfg.PaymentLinkBase},
		autoGenerate: auto,
		log:          log,
	}
	a.hub.AllowOrigins(cfg.corsOrigins()...)
	a.dispatcher = generator.NewDispatcher(a.runner, a.modules, cfg.GenerationConcurrency, a.onGenerated, log.Named("dispatcher"))
	return a, nil
}

// newGenerator picks the backend named by LLM_PROVIDER.
func newGenerator(ctx context.Context, cfg Config, log *zap.Logger) (generator.Generator, error) {
	switch cfg.LLMProvider {
	case "openai":
		return generator.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.OpenAIOrg, log.Named("openai")), nil
	case "gemini":
		return generator.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case "stub":
		return generator.Stub{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// Close stops background generation and disconnects event streams.
func (a *api) Close() {
	a.dispatcher.Close()
	a.hub.Close()
}

func (a *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.log.Named("http")))
	r.Use(middleware.Recoverer)

	// allow comma-separated list of origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With", "X-LC-User"},
		ExposedHeaders:   []string{"Set-Cookie", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Finish bare OPTIONS quickly
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/sign-in", a.handleSignIn)
		r.Post("/auth/sign-out", a.handleSignOut)
		r.Get("/auth/me", a.handleMe)

		r.Get("/catalog", a.handleCatalog)

		r.Route("/sprints", func(r chi.Router) {
			r.Get("/", a.handleListSprints)
			r.Post("/", a.handleCreateSprint)
			r.Get("/stats", a.handleSprintStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.handleGetSprint)
				r.Post("/payment-link", a.handlePaymentLink)
				r.Post("/mark-paid", a.handleMarkPaid)
				r.Post("/tier", a.handleChangeTier)
				r.Post("/complete", a.handleCompleteSprint)
				r.Post("/save", a.handleSaveSprint)

				r.Get("/intake", a.handleGetIntake)
				r.Post("/intake", a.handleSubmitIntake)

				r.Get("/modules", a.handleListModules)
				r.Post("/regenerate-modules", a.handleRegenerateModules)
				r.Post("/modules/{type}/generate", a.handleGenerateModule)

				r.Get("/comments", a.handleListComments)
				r.Post("/comments", a.handleAddComment)

				r.Get("/report.pdf", a.handleReport)
				r.Get("/events", a.handleEvents)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	return r
}

// requestLogger logs one line per request once the handler returns.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// onGenerated turns dispatcher results into sprint events.
func (a *api) onGenerated(res generator.Result) {
	if res.Err != nil {
		a.hub.Publish(events.Event{
			Type:     events.ModuleFailed,
			SprintID: res.SprintID,
			Module:   res.Module,
			Error:    res.Err.Error(),
			At:       time.Now().UTC(),
		})
		return
	}
	a.publishCompleted(context.Background(), res.SprintID, res.Module)
}

func (a *api) publishCompleted(ctx context.Context, sprintID string, mt catalog.ModuleType) {
	e := events.Event{Type: events.ModuleCompleted, SprintID: sprintID, Module: mt, At: time.Now().UTC()}
	if p, err := a.modules.ProgressOf(ctx, sprintID); err == nil {
		e.Progress = &p
	}
	a.hub.Publish(e)
}

func (a *api) publishRegenerated(sprintID string, progress int) {
	a.hub.Publish(events.Event{
		Type:     events.ModulesRegenerated,
		SprintID: sprintID,
		Progress: &progress,
		At:       time.Now().UTC(),
	})
}
