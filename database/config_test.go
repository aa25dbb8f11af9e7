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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.ConnectionConfig.Type)
	assert.Equal(t, ":memory:", cfg.ConnectionConfig.DBName)
	assert.True(t, cfg.DataMigrateConfig.EnableMigrateOnStartup)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "application.yaml", `
connection_config:
  type: postgres
  host: db.internal
  port: 5432
  dbname: customers
  slow_query_time: 500ms
data_init_config:
  auto_init_on_startup: true
  environment: dev
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	assert.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5432, cfg.ConnectionConfig.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.ConnectionConfig.SlowQueryTime)
	assert.Equal(t, 100, cfg.ConnectionConfig.MaxOpenConns)
	assert.True(t, cfg.DataInitConfig.AutoInitOnStartup)
	assert.Equal(t, "configs/sql", cfg.DataInitConfig.Filepath)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "application.yaml", "connection_config:\n  host: yaml-host\n  dbname: yaml-name\n  port: 3306\n")
	envPath := writeFile(t, dir, ".env", "DB_HOST=file-host\nDB_NAME=file-name\n")

	t.Setenv("DB_NAME", "process-name")
	t.Cleanup(func() { _ = os.Unsetenv("DB_HOST") })

	cfg, err := ResolveConfig(cfgPath, envPath, true)
	require.NoError(t, err)
	assert.Equal(t, "file-host", cfg.ConnectionConfig.Host)
	assert.Equal(t, "process-name", cfg.ConnectionConfig.DBName)
	assert.Equal(t, 3306, cfg.ConnectionConfig.Port)
}

func TestLoadEnvFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, LoadEnvFile(missing, false))
	assert.Error(t, LoadEnvFile(missing, true))
	assert.NoError(t, LoadEnvFile("", true))
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "pgx")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_CONNECT_TIMEOUT", "3")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")
	t.Setenv("DB_QUERY_LOG_STYLE", "color")

	cfg := DefaultConnectionConfig()
	OverrideFromEnv(cfg)
	assert.Equal(t, "pgx", cfg.Type)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 7, cfg.MaxOpenConns)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.EnableQueryLog)
	assert.Equal(t, "color", cfg.QueryLogStyle)
}

func TestDumpMasksPassword(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Password = "s3cret"

	out, err := cfg.Dump()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "s3cret")
	assert.Equal(t, "s3cret", cfg.ConnectionConfig.Password)

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "******", back.ConnectionConfig.Password)
	assert.Equal(t, "sqlite", back.ConnectionConfig.Type)
}
