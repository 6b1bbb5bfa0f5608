package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/barnhand/barnhand/internal/livestock"
	"github.com/barnhand/barnhand/internal/thread"
)

type mockHistoryStore struct {
	history []thread.Turn
	loadErr error
	saveErr error

	savedUserID   string
	savedThreadID string
	saved         []thread.Turn
	saveCalls     int
}

func (m *mockHistoryStore) Messages(ctx context.Context, userID, threadID string) ([]thread.Turn, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.history, nil
}

func (m *mockHistoryStore) Save(ctx context.Context, userID, threadID string, turns []thread.Turn) error {
	m.saveCalls++
	m.savedUserID = userID
	m.savedThreadID = threadID
	m.saved = turns
	return m.saveErr
}

type mockRebuilder struct {
	count      int
	rebuildErr error
	forced     []bool
}

func (m *mockRebuilder) Rebuild(ctx context.Context, force bool) (int, error) {
	m.forced = append(m.forced, force)
	if m.rebuildErr != nil {
		return 0, m.rebuildErr
	}
	return m.count, nil
}

type mockSummarizer struct {
	summary livestock.Summary
	err     error
}

func (m *mockSummarizer) Summary(ctx context.Context) (livestock.Summary, error) {
	if m.err != nil {
		return livestock.Summary{}, m.err
	}
	return m.summary, nil
}

func newTestService(gen *mockGenerator, threads *mockHistoryStore) *Service {
	orch := NewOrchestrator(gen, &mockContextSource{}, nil)
	return NewService(orch, threads, &mockRebuilder{}, nil, nil)
}

func TestService_Chat_AppendsBothTurns(t *testing.T) {
	gen := &mockGenerator{responses: []string{"general", "Hello! How can I help?"}}
	threads := &mockHistoryStore{history: []thread.Turn{
		{Role: thread.RoleUser, Content: "earlier question"},
		{Role: thread.RoleAssistant, Content: "earlier answer"},
	}}
	svc := newTestService(gen, threads)

	reply, err := svc.Chat(context.Background(), "alice", "t1", "hello")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != "Hello! How can I help?" {
		t.Errorf("unexpected reply %q", reply)
	}
	if threads.savedUserID != "alice" || threads.savedThreadID != "t1" {
		t.Error("saved under wrong key")
	}
	if len(threads.saved) != 4 {
		t.Fatalf("expected history of 4 turns after chat, got %d", len(threads.saved))
	}
	if threads.saved[2].Role != thread.RoleUser || threads.saved[2].Content != "hello" {
		t.Error("user turn not appended")
	}
	if threads.saved[3].Role != thread.RoleAssistant || threads.saved[3].Content != reply {
		t.Error("assistant turn not appended")
	}
}

func TestService_Chat_EmptyReplyFallsBack(t *testing.T) {
	gen := &mockGenerator{responses: []string{"general", ""}}
	threads := &mockHistoryStore{}
	svc := newTestService(gen, threads)

	reply, err := svc.Chat(context.Background(), "alice", "t1", "hello")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != fallbackReply {
		t.Errorf("expected apology fallback, got %q", reply)
	}
	if threads.saved[1].Content != fallbackReply {
		t.Error("fallback reply should be persisted, not the empty one")
	}
}

func TestService_Chat_HistoryLoadError(t *testing.T) {
	gen := &mockGenerator{}
	threads := &mockHistoryStore{loadErr: errors.New("postgres down")}
	svc := newTestService(gen, threads)

	if _, err := svc.Chat(context.Background(), "alice", "t1", "hello"); err == nil {
		t.Error("expected error, got nil")
	}
	if len(gen.prompts) != 0 {
		t.Error("no generation expected when history cannot load")
	}
}

func TestService_Chat_SaveFailureKeepsReply(t *testing.T) {
	gen := &mockGenerator{responses: []string{"general", "still useful answer"}}
	threads := &mockHistoryStore{saveErr: errors.New("disk full")}
	svc := newTestService(gen, threads)

	reply, err := svc.Chat(context.Background(), "alice", "t1", "hello")
	if err != nil {
		t.Fatalf("save failure must not drop the reply: %v", err)
	}
	if reply != "still useful answer" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestService_Chat_GenerateErrorPropagates(t *testing.T) {
	gen := &mockGenerator{
		responses: []string{"general", ""},
		errs:      []error{nil, errors.New("model unavailable")},
	}
	threads := &mockHistoryStore{}
	svc := newTestService(gen, threads)

	if _, err := svc.Chat(context.Background(), "alice", "t1", "hello"); err == nil {
		t.Error("expected error, got nil")
	}
	if threads.saveCalls != 0 {
		t.Error("failed turns must not be persisted")
	}
}

func TestService_Initialize(t *testing.T) {
	rebuilder := &mockRebuilder{count: 1274}
	source := &mockSummarizer{summary: livestock.Summary{TotalSpecies: 12, TotalBreeds: 1262}}
	svc := NewService(NewOrchestrator(&mockGenerator{}, &mockContextSource{}, nil),
		&mockHistoryStore{}, rebuilder, source, nil)

	count, err := svc.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if count != 1274 {
		t.Errorf("expected 1274 indexed, got %d", count)
	}
	if len(rebuilder.forced) != 1 || rebuilder.forced[0] {
		t.Error("startup initialization must not force a rebuild")
	}
}

func TestService_Initialize_SummaryFailureTolerated(t *testing.T) {
	svc := NewService(NewOrchestrator(&mockGenerator{}, &mockContextSource{}, nil),
		&mockHistoryStore{}, &mockRebuilder{count: 7},
		&mockSummarizer{err: errors.New("mssql unreachable")}, nil)

	count, err := svc.Initialize(context.Background())
	if err != nil {
		t.Fatalf("summary failure must not fail init: %v", err)
	}
	if count != 7 {
		t.Errorf("expected 7, got %d", count)
	}
}

func TestService_Initialize_RebuildError(t *testing.T) {
	svc := NewService(NewOrchestrator(&mockGenerator{}, &mockContextSource{}, nil),
		&mockHistoryStore{}, &mockRebuilder{rebuildErr: errors.New("extract failed")}, nil, nil)

	if _, err := svc.Initialize(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}
