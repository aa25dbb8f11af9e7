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
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) SetLevel(LogLevel)                       {}
func (l *recordingLogger) Debug(msg string, fields ...interface{}) {}
func (l *recordingLogger) Info(msg string, fields ...interface{})  {}
func (l *recordingLogger) Error(msg string, fields ...interface{}) {}
func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.warnings = append(l.warnings, msg)
}

func TestQueryHookPrintsErrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	hook := NewQueryHook(&buf, false)
	ctx := context.Background()

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now(), Err: sql.ErrNoRows})
	assert.Empty(t, buf.String())

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "INSERT INTO customer", StartTime: time.Now(), Err: errors.New("boom")})
	assert.Contains(t, buf.String(), "INSERT INTO customer")
	assert.Contains(t, buf.String(), "boom")
}

func TestQueryHookVerboseAndSilent(t *testing.T) {
	var buf bytes.Buffer
	hook := NewQueryHook(&buf, true)
	ctx := context.Background()

	EnableBunSqlSilent(true)
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	EnableBunSqlSilent(false)
	assert.Empty(t, buf.String())

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Contains(t, buf.String(), "[BUN]")
}

func TestSlowQueryHook(t *testing.T) {
	var buf bytes.Buffer
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(10*time.Millisecond, &buf, logger)
	ctx := context.Background()

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT fast", StartTime: time.Now()})
	assert.Empty(t, logger.warnings)

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT slow", StartTime: time.Now().Add(-time.Second)})
	assert.Equal(t, []string{"Database slow query detected"}, logger.warnings)
	assert.Contains(t, buf.String(), "SELECT slow")
}
