package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/barnhand/barnhand/internal/knowledge"
)

// mockExtractor returns a fixed document set.
type mockExtractor struct {
	docs       []knowledge.Document
	extractErr error
	calls      int
}

func (m *mockExtractor) ExtractDocuments(ctx context.Context) ([]knowledge.Document, error) {
	m.calls++
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.docs, nil
}

// mockStore tracks index mutations in memory.
type mockStore struct {
	indexed    bool
	count      int
	indexedErr error
	countErr   error
	addErr     error
	deleteErr  error

	addCalls    int
	batchSizes  []int
	added       []knowledge.Document
	deleteCalls int
}

func (m *mockStore) Indexed(ctx context.Context) (bool, error) {
	return m.indexed, m.indexedErr
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return -1, m.countErr
	}
	return m.count, nil
}

func (m *mockStore) AddBatch(ctx context.Context, docs []knowledge.Document) error {
	m.addCalls++
	m.batchSizes = append(m.batchSizes, len(docs))
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, docs...)
	return nil
}

func (m *mockStore) DeleteAll(ctx context.Context) (int, error) {
	m.deleteCalls++
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	n := m.count
	m.count = 0
	m.indexed = false
	return n, nil
}

func makeDocs(n int) []knowledge.Document {
	docs := make([]knowledge.Document, 0, n)
	for i := range n {
		docs = append(docs, knowledge.Document{
			ID:      fmt.Sprintf("breed_%d", i),
			Content: fmt.Sprintf("Breed: breed-%d", i),
			Type:    knowledge.TypeBreed,
		})
	}
	return docs
}

func TestIndexer_Rebuild_Batches(t *testing.T) {
	extractor := &mockExtractor{docs: makeDocs(45)}
	store := &mockStore{}
	ix := NewIndexer(extractor, store, nil)

	indexed, err := ix.Rebuild(context.Background(), false)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if indexed != 45 {
		t.Errorf("expected 45 indexed, got %d", indexed)
	}
	if store.addCalls != 3 {
		t.Errorf("expected 3 batches, got %d", store.addCalls)
	}
	wantSizes := []int{20, 20, 5}
	for i, want := range wantSizes {
		if store.batchSizes[i] != want {
			t.Errorf("batch %d size = %d, want %d", i, store.batchSizes[i], want)
		}
	}
	if len(store.added) != 45 {
		t.Errorf("expected all 45 documents stored, got %d", len(store.added))
	}
}

func TestIndexer_Rebuild_SkipsWhenIndexed(t *testing.T) {
	extractor := &mockExtractor{docs: makeDocs(5)}
	store := &mockStore{indexed: true, count: 1274}
	ix := NewIndexer(extractor, store, nil)

	indexed, err := ix.Rebuild(context.Background(), false)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if indexed != 1274 {
		t.Errorf("expected existing count 1274, got %d", indexed)
	}
	if extractor.calls != 0 {
		t.Error("extractor should not run when the index already exists")
	}
	if store.addCalls != 0 {
		t.Error("no batches should be written when the index already exists")
	}
}

func TestIndexer_Rebuild_CountFailureDegrades(t *testing.T) {
	store := &mockStore{indexed: true, countErr: errors.New("timeout")}
	ix := NewIndexer(&mockExtractor{}, store, nil)

	indexed, err := ix.Rebuild(context.Background(), false)
	if err != nil {
		t.Fatalf("count failure must not fail the rebuild: %v", err)
	}
	if indexed != 0 {
		t.Errorf("expected 0 when count unavailable, got %d", indexed)
	}
}

func TestIndexer_Rebuild_ForceClearsFirst(t *testing.T) {
	extractor := &mockExtractor{docs: makeDocs(10)}
	store := &mockStore{indexed: true, count: 99}
	ix := NewIndexer(extractor, store, nil)

	indexed, err := ix.Rebuild(context.Background(), true)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if store.deleteCalls != 1 {
		t.Errorf("expected 1 delete pass, got %d", store.deleteCalls)
	}
	if indexed != 10 {
		t.Errorf("expected 10 indexed after forced rebuild, got %d", indexed)
	}
}

func TestIndexer_Rebuild_Idempotent(t *testing.T) {
	// Rebuilding over unchanged data converges: same IDs, same contents.
	extractor := &mockExtractor{docs: makeDocs(25)}
	store := &mockStore{}
	ix := NewIndexer(extractor, store, nil)

	if _, err := ix.Rebuild(context.Background(), true); err != nil {
		t.Fatalf("first rebuild failed: %v", err)
	}
	first := append([]knowledge.Document(nil), store.added...)

	store.added = nil
	store.indexed = true
	store.count = 25

	if _, err := ix.Rebuild(context.Background(), true); err != nil {
		t.Fatalf("second rebuild failed: %v", err)
	}

	if len(first) != len(store.added) {
		t.Fatalf("rebuild changed document count: %d vs %d", len(first), len(store.added))
	}
	for i := range first {
		if first[i].ID != store.added[i].ID || first[i].Content != store.added[i].Content {
			t.Errorf("document %d differs between rebuilds", i)
		}
	}
}

func TestIndexer_Rebuild_Errors(t *testing.T) {
	tests := []struct {
		name      string
		extractor *mockExtractor
		store     *mockStore
		force     bool
	}{
		{
			name:      "indexed check fails",
			extractor: &mockExtractor{},
			store:     &mockStore{indexedErr: errors.New("down")},
		},
		{
			name:      "extract fails",
			extractor: &mockExtractor{extractErr: errors.New("mssql unreachable")},
			store:     &mockStore{},
		},
		{
			name:      "clear fails",
			extractor: &mockExtractor{docs: makeDocs(1)},
			store:     &mockStore{deleteErr: errors.New("locked")},
			force:     true,
		},
		{
			name:      "batch write fails",
			extractor: &mockExtractor{docs: makeDocs(5)},
			store:     &mockStore{addErr: errors.New("embedder quota")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := NewIndexer(tt.extractor, tt.store, nil)
			if _, err := ix.Rebuild(context.Background(), tt.force); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestIndexer_Rebuild_EmptySource(t *testing.T) {
	store := &mockStore{}
	ix := NewIndexer(&mockExtractor{}, store, nil)

	indexed, err := ix.Rebuild(context.Background(), false)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if indexed != 0 {
		t.Errorf("expected 0 indexed for empty source, got %d", indexed)
	}
	if store.addCalls != 0 {
		t.Error("no batches expected for empty source")
	}
}
