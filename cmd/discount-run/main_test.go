package main

import (
	"os"
	"path/filepath"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const cartInput = `{"cart":{"lines":[
	{"id":"l1","quantity":12,"merchandise":{"product":{"id":"p1","metafield":{"jsonValue":[{"quantity":10,"discount":15}]}}}},
	{"id":"l2","quantity":1,"merchandise":{"product":{"id":"p2","metafield":{"jsonValue":"broken"}}}}
]}}`

const cartOutput = `{"discountApplicationStrategy":"ALL","discounts":[
	{"targets":[{"cartLine":{"id":"l1"}}],"value":{"percentage":{"value":"15"}},"message":"Discount applied: 15%"}
]}`

func writeGzip(t *testing.T, path, content string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := pgzip.NewWriter(f)
	_, err = zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "cart.json")
	require.NoError(t, os.WriteFile(plain, []byte(cartInput), 0o600))
	gz := filepath.Join(dir, "cart.json.gz")
	writeGzip(t, gz, cartInput)

	tests := []struct {
		name  string
		input string
		gzip  bool
	}{
		{name: "plain file", input: plain},
		{name: "gzip file", input: gz, gzip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			out := filepath.Join(t.TempDir(), "result.json")

			err := run(t.Context(), zap.New(core), tt.input, out, tt.gzip, 2)
			require.NoError(t, err)

			got, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.JSONEq(t, cartOutput, string(got))

			warns := logs.FilterMessage("Invalid metafield format for product p2").AllUntimed()
			assert.Len(t, warns, 1)
		})
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"cart":`), 0o600))

	out := filepath.Join(dir, "result.json")

	err := run(t.Context(), zap.NewNop(), filepath.Join(dir, "missing.json"), out, false, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read input")

	err = run(t.Context(), zap.NewNop(), malformed, out, false, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode input")

	err = run(t.Context(), zap.NewNop(), malformed, out, true, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip")

	assert.NoFileExists(t, out)
}

func TestNewLogger(t *testing.T) {
	lg, err := newLogger(true, "stderr")
	require.NoError(t, err)
	assert.NotNil(t, lg)

	_, err = newLogger(false, filepath.Join(t.TempDir(), "missing", "dir", "log.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build logger")

	path := filepath.Join(t.TempDir(), "log.json")
	lg, err = newLogger(false, path)
	require.NoError(t, err)
	lg.Warn("hello")
	require.NoError(t, lg.Sync())
	assert.FileExists(t, path)
}
