package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://arxiv.org/pdf/2301.00001"))
	assert.True(t, IsURL("http://localhost:8080/paper.pdf"))
	assert.False(t, IsURL("/tmp/paper.pdf"))
	assert.False(t, IsURL("paper.pdf"))
	assert.False(t, IsURL("ftp://host/paper.pdf"))
}

func TestLoaderLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attention.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 ..."), 0644))

	src, err := NewLoader(time.Second).Load(context.Background(), "  "+path+"\n")
	require.NoError(t, err)
	assert.Equal(t, "attention", src.Name)
	assert.Equal(t, "pdf", src.Format)

	_, err = NewLoader(time.Second).Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, types.ErrUpstream)

	_, err = NewLoader(time.Second).Load(context.Background(), "")
	assert.Error(t, err)
}

func TestLoaderDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pdf/2301.00001":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.5 body"))
		case "/notes.txt":
			w.Write([]byte("plain text"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoaderWithClient(server.Client())
	ctx := context.Background()

	src, err := loader.Load(ctx, server.URL+"/pdf/2301.00001")
	require.NoError(t, err)
	assert.Equal(t, "2301.00001", src.Name)
	assert.Equal(t, "pdf", src.Format)
	assert.Equal(t, "%PDF-1.5 body", string(src.Data))

	src, err = loader.Load(ctx, server.URL+"/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes", src.Name)
	assert.Equal(t, "txt", src.Format)

	_, err = loader.Load(ctx, server.URL+"/missing.pdf")
	assert.ErrorIs(t, err, types.ErrUpstream)
	assert.Contains(t, err.Error(), "status 404")
}
