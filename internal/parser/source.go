package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// maxDownloadSize caps papers fetched over HTTP
const maxDownloadSize = 200 << 20

// Source is a loaded input document
type Source struct {
	Name   string // base name without extension, used to name the deck
	Format string // lowercase extension without the dot
	Data   []byte
}

// Loader resolves a locator (filesystem path or http(s) URL) to document bytes
type Loader struct {
	client *http.Client
}

// NewLoader creates a loader whose downloads are bounded by timeout
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{client: &http.Client{Timeout: timeout}}
}

// NewLoaderWithClient creates a loader with a caller-provided HTTP client
func NewLoaderWithClient(client *http.Client) *Loader {
	return &Loader{client: client}
}

// IsURL reports whether the locator is an http(s) URL
func IsURL(locator string) bool {
	u, err := url.Parse(locator)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads the document the locator points at
func (l *Loader) Load(ctx context.Context, locator string) (*Source, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, fmt.Errorf("empty locator")
	}

	if IsURL(locator) {
		return l.download(ctx, locator)
	}

	data, err := os.ReadFile(locator)
	if err != nil {
		return nil, types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "parser.Load", err)
	}
	return NewSource(filepath.Base(locator), data), nil
}

func (l *Loader) download(ctx context.Context, locator string) (*Source, error) {
	fail := func(err error) error {
		return types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "parser.download", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fail(err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to download %s: %w", locator, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(fmt.Errorf("failed to download %s: status %d", locator, resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fail(fmt.Errorf("failed to read download: %w", err))
	}
	if len(data) > maxDownloadSize {
		return nil, fail(fmt.Errorf("download exceeds %d bytes", maxDownloadSize))
	}

	u, _ := url.Parse(locator)
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "paper"
	}
	return NewSource(name, data), nil
}

// NewSource splits a file name into the deck base name and format.
// PDF content is recognised by its header whatever the name says.
func NewSource(fileName string, data []byte) *Source {
	ext := filepath.Ext(fileName)
	format := strings.ToLower(strings.TrimPrefix(ext, "."))
	if bytes.HasPrefix(data, []byte("%PDF-")) && format != "pdf" {
		return &Source{Name: fileName, Format: "pdf", Data: data}
	}
	return &Source{
		Name:   strings.TrimSuffix(fileName, ext),
		Format: format,
		Data:   data,
	}
}
