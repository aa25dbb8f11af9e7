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

package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/customerstore/customer"
	"github.com/tomoncle/customerstore/database"
)

func newTestRouter(t *testing.T, healthy bool) http.Handler {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "diagnostics")
	cfg.HealthCheckInterval = 0

	mgr := database.NewDatabaseManager(cfg)
	ctx := context.Background()
	require.NoError(t, mgr.Connect(ctx))
	t.Cleanup(func() { _ = mgr.Disconnect() })
	require.NoError(t, mgr.RunMigrations(ctx))

	store := customer.NewStore(mgr.GetDB())
	_, err := store.SaveAll(ctx,
		customer.New("Jack", "Bauer"),
		customer.New("Chloe", "O'Brian"),
		customer.New("Kim", "Bauer"),
	)
	require.NoError(t, err)

	health := func(ctx context.Context) *database.HealthStatus {
		if healthy {
			return mgr.HealthCheck(ctx)
		}
		return &database.HealthStatus{LastError: "connection refused", LastCheckTime: time.Now()}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "customerstore_test_total", Help: "test"}))
	return NewRouter(store, health, reg)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestListCustomers(t *testing.T) {
	h := newTestRouter(t, true)

	w := get(t, h, "/customers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var all []customer.Customer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "Chloe", all[1].FirstName)

	w = get(t, h, "/customers?lastName=Bauer")
	require.Equal(t, http.StatusOK, w.Code)
	var bauers []customer.Customer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bauers))
	assert.Len(t, bauers, 2)

	w = get(t, h, "/customers?lastName=Nobody")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestPageCustomers(t *testing.T) {
	h := newTestRouter(t, true)

	w := get(t, h, "/customers?page=2&size=2")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Page  int                 `json:"page"`
		Total int                 `json:"total"`
		Items []customer.Customer `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Kim", page.Items[0].FirstName)
}

func TestListCustomersRejectsBadQuery(t *testing.T) {
	h := newTestRouter(t, true)

	w := get(t, h, "/customers?lastName=")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "lastName")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/customers?page=x").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/customers?size=ten").Code)
}

func TestPageSizeIsCapped(t *testing.T) {
	h := newTestRouter(t, true)

	w := get(t, h, "/customers?page=1&size=100000000")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		PageSize int                 `json:"pageSize"`
		Total    int                 `json:"total"`
		Items    []customer.Customer `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, maxPageSize, page.PageSize)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 3)
}

func TestGetCustomer(t *testing.T) {
	h := newTestRouter(t, true)

	w := get(t, h, "/customers/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"firstName":"Jack","lastName":"Bauer"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/customers/99").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/customers/abc").Code)
}

func TestHealthz(t *testing.T) {
	w := get(t, newTestRouter(t, true), "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	var status database.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Healthy)

	w = get(t, newTestRouter(t, false), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetrics(t *testing.T) {
	w := get(t, newTestRouter(t, true), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "customerstore_test_total 0")
}
