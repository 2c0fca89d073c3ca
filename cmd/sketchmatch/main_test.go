package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/sketchmatch/internal/config"
	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/pkg/logger"
)

const squareJSON = `[{"points": [[0, 100, 100, 0, 0], [0, 0, 100, 100, 0]], "color": [0, 0, 0]}]`

const drawingsJSON = `[
  [{"points": [[0, 100, 100, 0, 0], [0, 0, 100, 100, 0]]}],
  [{"points": [[0, 300], [0, 20]]}, {"points": [[40, 40, 60], [0, 80, 80]]}]
]`

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "sketchmatch (devel)\n", out)
}

func TestScoreCommand(t *testing.T) {
	t.Run("identical drawings score 100", func(t *testing.T) {
		ref := writeFile(t, "square.json", squareJSON)
		out, err := execute(t, "score", "--reference", ref, "--candidate", ref)
		require.NoError(t, err)

		var bd scoring.Breakdown
		require.NoError(t, json.Unmarshal([]byte(out), &bd))
		assert.InDelta(t, 100, bd.Similarity, 0)
		assert.Equal(t, 1, bd.ReferenceStrokes)
	})

	t.Run("indices pick from a drawings array", func(t *testing.T) {
		all := writeFile(t, "drawings.json", drawingsJSON)
		out, err := execute(t, "score", "--reference", all, "--candidate", all, "--cand-index", "1")
		require.NoError(t, err)

		var bd scoring.Breakdown
		require.NoError(t, json.Unmarshal([]byte(out), &bd))
		assert.Equal(t, 1, bd.ReferenceStrokes)
		assert.Equal(t, 2, bd.CandidateStrokes)
		assert.Less(t, bd.Similarity, 100.0)
	})

	t.Run("out of range index", func(t *testing.T) {
		all := writeFile(t, "drawings.json", drawingsJSON)
		_, err := execute(t, "score", "--reference", all, "--candidate", all, "--ref-index", "5")
		assert.True(t, errors.Is(err, ErrDrawingIndex))
	})

	t.Run("index into a single drawing", func(t *testing.T) {
		ref := writeFile(t, "square.json", squareJSON)
		_, err := execute(t, "score", "--reference", ref, "--candidate", ref, "--cand-index", "1")
		assert.True(t, errors.Is(err, ErrDrawingIndex))
	})

	t.Run("missing flags", func(t *testing.T) {
		_, err := execute(t, "score")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "score", "--reference", "/nonexistent.json", "--candidate", "/nonexistent.json")
		assert.Error(t, err)
	})
}

func TestReadDrawingQuickDraw(t *testing.T) {
	path := writeFile(t, "cats.ndjson",
		`{"word":"cat","key_id":"1","recognized":true,"drawing":[[[0,10,20],[0,10,0]]]}`+"\n"+
			`{"word":"cat","key_id":"2","recognized":true,"drawing":[[[0,5],[0,5]],[[5,9],[5,1]]]}`+"\n")

	d, err := readDrawing(context.Background(), path, 1)
	require.NoError(t, err)
	assert.Len(t, d, 2)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServe(t *testing.T) {
	cfg := config.New(context.Background())
	cfg.Addr = freeAddr(t)
	cfg.WorkerCount = 2
	cfg.PromptsFile = writeFile(t, "drawings.json", drawingsJSON)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg) }()

	base := "http://" + cfg.Addr
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(base + "/prompts")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 20*time.Millisecond)

	var list []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	_ = resp.Body.Close()
	assert.Len(t, list, 2)

	for _, path := range []string{"/", "/api-docs", "/openapi.yaml", "/metrics"} {
		r, err := http.Get(base + path)
		require.NoError(t, err, path)
		_ = r.Body.Close()
		assert.Equal(t, http.StatusOK, r.StatusCode, path)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeInvalidConfig(t *testing.T) {
	cfg := config.New(context.Background())
	cfg.StoreBackend = "sqlite"
	err := serve(context.Background(), cfg)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
	assert.True(t, strings.Contains(err.Error(), "store_backend"))
}
