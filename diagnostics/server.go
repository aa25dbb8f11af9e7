/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package diagnostics serves health, metrics and read-only customer lookups
// over HTTP.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/customerstore/customer"
	"github.com/tomoncle/customerstore/database"
	"github.com/tomoncle/customerstore/types"
)

const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second

	maxPageSize = 100
)

// HealthFunc reports the current database health.
type HealthFunc func(ctx context.Context) *database.HealthStatus

// Server is the diagnostics HTTP server.
type Server struct {
	httpServer *http.Server
	log        logrus.FieldLogger
}

// NewServer builds a server listening on addr. A nil gatherer serves the
// default prometheus registry.
func NewServer(addr string, store customer.Store, health HealthFunc, gatherer prometheus.Gatherer, log logrus.FieldLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(store, health, gatherer),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		log: log,
	}
}

// NewRouter returns the diagnostics routes.
func NewRouter(store customer.Store, health HealthFunc, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &handler{store: store, health: health}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Get("/{id}", h.getCustomer)
	})
	return r
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("diagnostics server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

type handler struct {
	store  customer.Store
	health HealthFunc
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeError(w, http.StatusServiceUnavailable, "health check not configured")
		return
	}
	status := h.health(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Has("lastName") {
		lastName := q.Get("lastName")
		if lastName == "" {
			writeError(w, http.StatusBadRequest, "lastName must not be empty")
			return
		}
		customers, err := h.store.FindByLastName(r.Context(), lastName)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customers)
		return
	}

	if q.Has("page") || q.Has("size") {
		page, err := intParam(q.Get("page"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		size, err := intParam(q.Get("size"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
		if size > maxPageSize {
			size = maxPageSize
		}
		result, err := h.store.Page(r.Context(), types.NewDefaultPageRequest(page, size))
		if err != nil {
			writeStorageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	customers, err := h.store.FindAll(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// intParam parses an optional integer query value; empty means zero.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrConnection) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
