package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/partsight/partsight-cli/internal/compat"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/schedule"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API with background market and rate refreshes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		sched := schedule.New()
		sched.Add(schedule.Every("market_refresh",
			time.Duration(cfg.Market.RefreshIntervalMins)*time.Minute,
			env.Market.RefreshAll))
		sched.Add(schedule.DailyAt("rate_refresh", cfg.Currency.RefreshHour,
			func(ctx context.Context) { env.Converter.UpdateAll(ctx) }))
		go sched.Run(ctx)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, env.Errors.Health())
	})

	r.Route("/components/{id}", func(r chi.Router) {
		r.Get("/alternatives", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, env.Compat.FindAlternatives(
				req.Context(), chi.URLParam(req, "id"), compat.Options{}))
		})
		r.Get("/prediction", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, env.Predictor.PredictDepletion(
				req.Context(), chi.URLParam(req, "id")))
		})
		r.Get("/forecast", func(w http.ResponseWriter, req *http.Request) {
			horizon := queryInt(req, "horizon", cfg.Prediction.ReorderHorizonDays)
			writeJSON(w, http.StatusOK, env.Predictor.ForecastDemand(
				req.Context(), chi.URLParam(req, "id"), horizon))
		})
		r.Get("/market", func(w http.ResponseWriter, req *http.Request) {
			refresh := req.URL.Query().Get("refresh") == "true"
			writeJSON(w, http.StatusOK, env.Market.FetchMarketData(
				req.Context(), chi.URLParam(req, "id"), refresh, targetCurrency(req)))
		})
		r.Get("/market/compare", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, env.Market.PriceComparison(
				req.Context(), chi.URLParam(req, "id"), targetCurrency(req)))
		})
		r.Get("/market/trends", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, env.Market.AnalyzeTrends(
				req.Context(), chi.URLParam(req, "id"), targetCurrency(req)))
		})
	})

	r.Get("/alerts/stock", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, env.Predictor.GenerateStockAlerts(req.Context()))
	})

	r.Route("/alerts/price", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			alerts, err := env.Market.ListAlerts(req.Context(), req.URL.Query().Get("component"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, alerts)
		})
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var alert model.PriceAlert
			if err := json.NewDecoder(req.Body).Decode(&alert); err != nil {
				writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode alert"))
				return
			}
			created, err := env.Market.CreateAlert(req.Context(), alert)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		})
		r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
			var alert model.PriceAlert
			if err := json.NewDecoder(req.Body).Decode(&alert); err != nil {
				writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode alert"))
				return
			}
			alert.ID = chi.URLParam(req, "id")
			if err := env.Market.UpdateAlert(req.Context(), alert); err != nil {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeJSON(w, http.StatusOK, alert)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			if err := env.Market.DeleteAlert(req.Context(), chi.URLParam(req, "id")); err != nil {
				writeError(w, http.StatusNotFound, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Get("/rates/{from}/{to}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, env.Converter.GetRate(req.Context(),
			strings.ToUpper(chi.URLParam(req, "from")),
			strings.ToUpper(chi.URLParam(req, "to"))))
	})

	return r
}

func targetCurrency(req *http.Request) string {
	if c := req.URL.Query().Get("currency"); c != "" {
		return strings.ToUpper(c)
	}
	return ""
}

func queryInt(req *http.Request, key string, fallback int) int {
	if raw := req.URL.Query().Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
