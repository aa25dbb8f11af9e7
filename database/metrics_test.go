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

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestMetricsHookCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook, err := NewMetricsHook(reg)
	require.NoError(t, err)

	ctx := context.Background()
	start := time.Now()
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT * FROM customer", StartTime: start})
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT * FROM customer WHERE id = 9", StartTime: start, Err: sql.ErrNoRows})
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "INSERT INTO customer DEFAULT VALUES", StartTime: start, Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(hook.queries.WithLabelValues("SELECT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.queries.WithLabelValues("INSERT", "error")))

	again, err := NewMetricsHook(reg)
	require.NoError(t, err)
	assert.Same(t, hook.queries, again.queries)
}

func TestRegisterPoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	stats := func() sql.DBStats { return sql.DBStats{OpenConnections: 3, MaxOpenConnections: 10} }
	require.NoError(t, RegisterPoolMetrics(reg, stats))

	n, err := testutil.GatherAndCount(reg,
		"customerstore_db_pool_open_conns",
		"customerstore_db_pool_max_open_conns",
		"customerstore_db_pool_wait_count",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Error(t, RegisterPoolMetrics(reg, stats))
}
