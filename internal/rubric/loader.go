// Package rubric loads and validates the scoring rubric catalog.
// Rubrics are authored as YAML files, one per category.
package rubric

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/storage"
)

// Loader manages loading and caching of rubrics
type Loader struct {
	mu      sync.RWMutex
	rubrics map[string]*models.Rubric // keyed by category id
}

// NewLoader creates a new rubric loader
func NewLoader() *Loader {
	return &Loader{rubrics: make(map[string]*models.Rubric)}
}

// LoadFromDir loads all YAML rubrics from a directory and its immediate
// subdirectories.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading rubrics from directory", "dir", dir)

	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)

		subMatches, err := filepath.Glob(filepath.Join(dir, "*", pattern))
		if err != nil {
			continue
		}
		files = append(files, subMatches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load rubric", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("rubrics loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single rubric from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var r models.Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&r); err != nil {
		return err
	}

	for _, warning := range Normalize(&r) {
		slog.Warn("rubric configuration issue", "rubric", r.ID, "file", path, "issue", warning)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rubrics[r.CategoryID] = &r

	slog.Debug("rubric loaded", "rubric", r.ID, "category", r.CategoryID, "sections", len(r.Sections))
	return nil
}

// Get retrieves the rubric for a category, or nil
func (l *Loader) Get(categoryID string) *models.Rubric {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rubrics[categoryID]
}

// List returns all loaded rubrics sorted by category id
func (l *Loader) List() []*models.Rubric {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rubrics := make([]*models.Rubric, 0, len(l.rubrics))
	for _, r := range l.rubrics {
		rubrics = append(rubrics, r)
	}

	sort.Slice(rubrics, func(i, j int) bool {
		return rubrics[i].CategoryID < rubrics[j].CategoryID
	})

	return rubrics
}

// ApplyToCategories writes each loaded rubric onto its category record,
// so scoring reads the same rubric the catalog describes. Categories
// missing from storage are skipped with a warning.
func (l *Loader) ApplyToCategories(ctx context.Context, repo storage.Repository) error {
	for _, r := range l.List() {
		category, err := repo.GetCategory(ctx, r.CategoryID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.Warn("rubric references unknown category", "rubric", r.ID, "category", r.CategoryID)
				continue
			}
			return err
		}

		category.RubricID = r.ID
		category.Rubric = r
		if err := repo.UpdateCategory(ctx, category); err != nil {
			return fmt.Errorf("failed to apply rubric %s: %w", r.ID, err)
		}

		slog.Info("rubric applied to category", "rubric", r.ID, "category", r.CategoryID)
	}

	return nil
}
