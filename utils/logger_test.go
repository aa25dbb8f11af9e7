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

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(msg string, data logrus.Fields) *logrus.Entry {
	return &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2025, 3, 1, 10, 4, 5, 123000000, time.UTC),
		Level:   logrus.InfoLevel,
		Message: msg,
		Data:    data,
		Caller:  &runtime.Frame{File: "/src/customerstore/bootstrap/runner.go", Line: 42},
	}
}

func TestLog4jFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "BOOTSTRAP", NameWidth: 10}
	out, err := f.Format(newEntry("Customers found with findAll():", logrus.Fields{"b": 2, "a": 1}))
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasPrefix(line, "2025-03-01 10:04:05.123    INFO "), line)
	assert.Contains(t, line, " - [main]  BOOTSTRAP bootstrap/runner.go:42 : Customers found with findAll(): a=1 b=2\n")
	assert.NotContains(t, line, "\x1b[")
}

func TestLog4jFormatterColor(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "MAIN", ColorOutput: true}
	out, err := f.Format(newEntry("hello", nil))
	require.NoError(t, err)
	assert.Contains(t, string(out), ansiGreen)
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "DATABASE"}
	out, err := f.Format(newEntry("Database connected", logrus.Fields{"error": errors.New("boom"), "type": "sqlite"}))
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "DATABASE", rec["logger"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "Database connected", rec["message"])
	assert.Equal(t, "bootstrap/runner.go:42", rec["caller"])
	fields := rec["fields"].(map[string]interface{})
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "sqlite", fields["type"])
}

func TestNewLoggerWritesToConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	SetConsoleOutput(&buf)
	defer SetConsoleOutput(nil)

	l := NewLogger("UTILTEST")
	assert.Same(t, l, NewLogger("UTILTEST"))

	l.WithField("k", "v").Info("written")
	assert.Contains(t, buf.String(), "written k=v")

	assert.True(t, SetLoggerLevel("UTILTEST", "error"))
	buf.Reset()
	l.Info("dropped")
	assert.Empty(t, buf.String())
	assert.False(t, SetLoggerLevel("MISSING", "debug"))
}

func TestConfigureConsoleLogFormat(t *testing.T) {
	var buf bytes.Buffer
	SetConsoleOutput(&buf)
	defer SetConsoleOutput(nil)
	defer ConfigureConsoleLogFormat("text")

	l := NewLogger("FMTTEST")
	ConfigureConsoleLogFormat("json")
	l.Warn("as json")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "FMTTEST", rec["logger"])
	assert.Equal(t, "warning", rec["level"])
}

func TestConfigureConsoleLogFormatWhileCreatingLoggers(t *testing.T) {
	defer ConfigureConsoleLogFormat("text")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			NewLogger(fmt.Sprintf("RACE%d", i))
		}(i)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				ConfigureConsoleLogFormat("json")
			} else {
				ConfigureConsoleLogFormat("text")
			}
		}(i)
	}
	wg.Wait()

	ConfigureConsoleLogFormat("json")
	for i := 0; i < 8; i++ {
		l := NewLogger(fmt.Sprintf("RACE%d", i))
		assert.IsType(t, &JSONLogFormatter{}, l.Formatter)
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warn "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CUSTOMERSTORE_TEST_INT", "12")
	t.Setenv("CUSTOMERSTORE_TEST_BOOL", "nope")
	assert.Equal(t, 12, EnvDefaultInt("CUSTOMERSTORE_TEST_INT", 3))
	assert.True(t, EnvDefaultBool("CUSTOMERSTORE_TEST_BOOL", true))
	assert.Equal(t, "fallback", EnvDefaultString("CUSTOMERSTORE_TEST_UNSET", "fallback"))
}
