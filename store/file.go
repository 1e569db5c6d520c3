// ABOUTME: Directory-backed store: one TOML file per scenario, one JSON file per run
// ABOUTME: Default backend when no database is configured

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/models"
)

// FileStore keeps scenarios under <dir>/*.toml and runs under <dir>/runs/*.json.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directory layout if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "runs"), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	slog.Debug("File store ready", "dir", dir)
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) scenarioPath(name string) string {
	return filepath.Join(s.dir, name+".toml")
}

func (s *FileStore) GetScenario(_ context.Context, name string) (models.Scenario, error) {
	if err := ValidateName(name); err != nil {
		return models.Scenario{}, err
	}
	sc, err := config.LoadScenario(s.scenarioPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Scenario{}, fmt.Errorf("scenario %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Scenario{}, err
	}
	sc.Name = name
	return sc, nil
}

func (s *FileStore) PutScenario(_ context.Context, sc models.Scenario) error {
	if err := ValidateName(sc.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return config.SaveScenario(s.scenarioPath(sc.Name), sc)
}

func (s *FileStore) ListScenarios(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".toml")
		if e.IsDir() || !ok || ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) runPath(id string) string {
	return filepath.Join(s.dir, "runs", id+".json")
}

func (s *FileStore) RecordRun(_ context.Context, run models.AnalysisRun) error {
	if _, err := uuid.Parse(run.ID); err != nil {
		return &models.ConfigurationError{Field: "run.id", Reason: err.Error()}
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.runPath(run.ID), data, 0o644)
}

func (s *FileStore) GetRun(_ context.Context, id string) (models.AnalysisRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.AnalysisRun{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return readRun(s.runPath(id))
}

func readRun(path string) (models.AnalysisRun, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.AnalysisRun{}, fmt.Errorf("run %s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return models.AnalysisRun{}, err
	}
	var run models.AnalysisRun
	if err := json.Unmarshal(data, &run); err != nil {
		return models.AnalysisRun{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return run, nil
}

func (s *FileStore) ListRuns(_ context.Context, scenario string, limit int) ([]models.AnalysisRun, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "runs", "*.json"))
	if err != nil {
		return nil, err
	}

	var runs []models.AnalysisRun
	for _, p := range paths {
		run, err := readRun(p)
		if err != nil {
			slog.Warn("Skipping unreadable run", "path", p, "error", err)
			continue
		}
		if scenario != "" && run.Scenario != scenario {
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if n := runLimit(limit); len(runs) > n {
		runs = runs[:n]
	}
	return runs, nil
}

func (s *FileStore) Close() error {
	return nil
}
