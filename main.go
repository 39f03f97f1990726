package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jottdapp/backend/auth"
	"github.com/jottdapp/backend/config"
	"github.com/jottdapp/backend/handlers"
	"github.com/jottdapp/backend/kv"
	appmw "github.com/jottdapp/backend/middleware"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	db, err := kv.Open(cfg.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}

	ctx := context.Background()
	users, err := kv.NewMySQL(ctx, db, "users")
	if err != nil {
		log.Fatal().Err(err).Msg("opening users bucket")
	}
	stores, err := kv.NewMySQL(ctx, db, "stores")
	if err != nil {
		log.Fatal().Err(err).Msg("opening stores bucket")
	}

	codec := auth.NewCodec([]byte(cfg.SecretKey))
	resolver := auth.NewResolver(codec, handlers.NewUserStore(users))
	h := handlers.New(users, stores, codec, resolver, cfg.Session, log)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(corsMiddleware(cfg.Origins))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth(resolver))

		r.Route("/api/store", func(r chi.Router) {
			r.Get("/list", h.ListStores)
			r.Post("/new", h.NewStore)
			r.Post("/edit-shortcut", h.EditShortcut)
			r.Post("/delete", h.DeleteStore)
		})
		r.Route("/api/note", func(r chi.Router) {
			r.Get("/list", h.ListNotes)
			r.Post("/new", h.NewNote)
			r.Post("/edit", h.EditNote)
		})
	})

	log.Info().Str("addr", cfg.Addr).Msg("server listening")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// corsMiddleware allows the configured origins with credentials, since the
// session rides a cookie.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				// Any header goes; with credentials that means echoing the
				// preflight's request list rather than "*".
				headers := r.Header.Get("Access-Control-Request-Headers")
				if headers == "" {
					headers = "Content-Type"
				}
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			}
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
