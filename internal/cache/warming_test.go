package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mkadlec/binsim/internal/models"
)

type mockRunner struct {
	mu          sync.Mutex
	names       []string
	rankCalls   []string // "measure/target"
	matrixCalls []string
	rankErr     error
	namesErr    error
}

func (m *mockRunner) Rank(ctx context.Context, measureName, target string, limit int) (models.Ranking, error) {
	m.mu.Lock()
	m.rankCalls = append(m.rankCalls, measureName+"/"+target)
	m.mu.Unlock()
	if m.rankErr != nil {
		return models.Ranking{}, m.rankErr
	}
	return models.Ranking{Measure: measureName, Target: target}, nil
}

func (m *mockRunner) Matrix(ctx context.Context, measureName string, names []string) (models.SimilarityMatrix, error) {
	m.mu.Lock()
	m.matrixCalls = append(m.matrixCalls, measureName)
	m.mu.Unlock()
	return models.SimilarityMatrix{Measure: measureName}, nil
}

func (m *mockRunner) FingerprintNames(ctx context.Context) ([]string, error) {
	if m.namesErr != nil {
		return nil, m.namesErr
	}
	return m.names, nil
}

func TestWarmer_Warm_Success(t *testing.T) {
	runner := &mockRunner{names: []string{"run1", "run2"}}
	warmer := NewWarmer(runner, nil)
	ctx := context.Background()

	err := warmer.Warm(ctx, []string{"jaccard", "hamming"})
	if err != nil {
		t.Fatalf("Warm() error = %v, want nil", err)
	}
	if len(runner.rankCalls) != 4 {
		t.Errorf("rank calls = %d, want 4 (2 measures x 2 fingerprints)", len(runner.rankCalls))
	}
	if len(runner.matrixCalls) != 2 {
		t.Errorf("matrix calls = %d, want 2 (small catalog warms matrices)", len(runner.matrixCalls))
	}
}

func TestWarmer_Warm_EmptyMeasures(t *testing.T) {
	runner := &mockRunner{names: []string{"run1"}}
	warmer := NewWarmer(runner, nil)
	ctx := context.Background()

	err := warmer.Warm(ctx, nil)
	if err != nil {
		t.Fatalf("Warm() with nil measures error = %v, want nil", err)
	}
	err = warmer.Warm(ctx, []string{})
	if err != nil {
		t.Fatalf("Warm() with empty measures error = %v, want nil", err)
	}
	if len(runner.rankCalls) != 0 {
		t.Errorf("rank calls = %d, want 0", len(runner.rankCalls))
	}
}

func TestWarmer_Warm_EmptyCatalog(t *testing.T) {
	runner := &mockRunner{}
	warmer := NewWarmer(runner, nil)
	ctx := context.Background()

	err := warmer.Warm(ctx, []string{"jaccard"})
	if err != nil {
		t.Fatalf("Warm() with no fingerprints error = %v, want nil", err)
	}
	if len(runner.rankCalls) != 0 {
		t.Errorf("rank calls = %d, want 0", len(runner.rankCalls))
	}
}

func TestWarmer_Warm_RunnerError(t *testing.T) {
	runner := &mockRunner{names: []string{"run1"}, rankErr: errors.New("store down")}
	warmer := NewWarmer(runner, nil)
	ctx := context.Background()

	err := warmer.Warm(ctx, []string{"jaccard"})
	if err == nil {
		t.Fatal("Warm() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "store down") {
		t.Errorf("Warm() error = %q, want message containing failure", err)
	}
}

func TestWarmer_Warm_ListError(t *testing.T) {
	runner := &mockRunner{namesErr: errors.New("store down")}
	warmer := NewWarmer(runner, nil)
	ctx := context.Background()

	err := warmer.Warm(ctx, []string{"jaccard"})
	if err == nil {
		t.Fatal("Warm() error = nil, want non-nil")
	}
	if len(runner.rankCalls) != 0 {
		t.Errorf("rank calls = %d, want 0 when listing fails", len(runner.rankCalls))
	}
}

func TestWarmer_Warm_LargeCatalogSkipsMatrix(t *testing.T) {
	names := make([]string, maxWarmMatrixNames+1)
	for i := range names {
		names[i] = "fp" + string(rune('a'+i%26)) + string(rune('0'+i%10))
	}
	runner := &mockRunner{names: names}
	warmer := NewWarmer(runner, nil)
	ctx := context.Background()

	if err := warmer.Warm(ctx, []string{"jaccard"}); err != nil {
		t.Fatalf("Warm() error = %v, want nil", err)
	}
	if len(runner.matrixCalls) != 0 {
		t.Errorf("matrix calls = %d, want 0 for large catalog", len(runner.matrixCalls))
	}
	if len(runner.rankCalls) != len(names) {
		t.Errorf("rank calls = %d, want %d", len(runner.rankCalls), len(names))
	}
}
