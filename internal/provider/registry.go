package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Registry manages content analyzer instances
type Registry struct {
	analyzers map[string]ContentAnalyzer
	order     []string
	logger    *logrus.Logger
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		analyzers: make(map[string]ContentAnalyzer),
		logger:    logging.OrDiscard(logger),
	}
}

// Register registers an analyzer under its name
func (r *Registry) Register(analyzer ContentAnalyzer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := analyzer.Name()
	if _, exists := r.analyzers[name]; exists {
		return fmt.Errorf("analyzer already registered: %s", name)
	}

	r.analyzers[name] = analyzer
	r.order = append(r.order, name)
	return nil
}

// Get retrieves an analyzer by name. An empty name selects the first
// registered analyzer.
func (r *Registry) Get(name string) (ContentAnalyzer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if len(r.order) == 0 {
			return nil, errors.New("no analyzers registered")
		}
		name = r.order[0]
	}

	analyzer, exists := r.analyzers[name]
	if !exists {
		return nil, fmt.Errorf("analyzer not found: %s", name)
	}

	return analyzer, nil
}

// List returns all registered analyzer names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all registered analyzers
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, analyzer := range r.analyzers {
		if err := analyzer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close analyzer %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// InitializeProviders creates analyzers from configuration. Enabled providers
// with an endpoint and model talk to an OpenAI-compatible API; the rest run
// the offline stub analyzer.
func (r *Registry) InitializeProviders(cfg types.ProvidersConfig) error {
	for _, llmCfg := range cfg.LLM {
		if !llmCfg.Enabled {
			continue
		}

		var analyzer ContentAnalyzer
		if llmCfg.Endpoint != "" && llmCfg.Model != "" {
			openaiAnalyzer, err := NewOpenAIAnalyzer(llmCfg, r.logger)
			if err != nil {
				return fmt.Errorf("failed to create OpenAI analyzer %s: %w", llmCfg.Name, err)
			}
			analyzer = openaiAnalyzer
		} else {
			analyzer = NewStubAnalyzer(llmCfg.Name)
		}

		if err := r.Register(analyzer); err != nil {
			return err
		}

		r.logger.WithFields(logrus.Fields{
			"analyzer": llmCfg.Name,
			"model":    llmCfg.Model,
		}).Debug("Registered analyzer")
	}

	return nil
}
