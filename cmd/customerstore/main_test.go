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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/customerstore/database"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigCommandAppliesFlags(t *testing.T) {
	t.Setenv("DB_HOST", "env-host")

	out, err := execute(t, "config", "--db-type", "mysql", "--db-port", "3307", "--db-name", "crm")
	require.NoError(t, err)

	var cfg database.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "mysql", cfg.ConnectionConfig.Type)
	assert.Equal(t, 3307, cfg.ConnectionConfig.Port)
	assert.Equal(t, "crm", cfg.ConnectionConfig.DBName)
	assert.Equal(t, "env-host", cfg.ConnectionConfig.Host)
}

func TestRunCommand(t *testing.T) {
	dbName := filepath.Join(t.TempDir(), "cli")
	_, err := execute(t, "run", "--db-name", dbName)
	require.NoError(t, err)
	assert.FileExists(t, dbName+".db")
	assert.Nil(t, database.GetDB())
}

func TestRootCommandRunsBootstrap(t *testing.T) {
	dbName := filepath.Join(t.TempDir(), "root")
	_, err := execute(t, "--db-name", dbName)
	require.NoError(t, err)
	assert.FileExists(t, dbName+".db")
	assert.Nil(t, database.GetDB())
}

func TestRootCommandDefaultsToMemory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DB_TYPE", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("CUSTOMERSTORE_CONFIG", "")

	out, err := execute(t)
	require.NoError(t, err)
	assert.NotContains(t, out, "Usage:")

	entries, err := os.ReadDir(".")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRootCommandRejectsArguments(t *testing.T) {
	_, err := execute(t, "--db-name", ":memory:", "extra")
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	dbName := filepath.Join(t.TempDir(), "migrate")
	_, err := execute(t, "migrate", "--db-name", dbName)
	require.NoError(t, err)
	assert.FileExists(t, dbName+".db")
}

func TestMissingEnvFileIsAnErrorWhenRequested(t *testing.T) {
	_, err := execute(t, "config", "--env-file", filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}

func TestUnsupportedDatabaseType(t *testing.T) {
	_, err := execute(t, "run", "--db-type", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}
