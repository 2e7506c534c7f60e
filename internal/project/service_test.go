package project

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cutscript/cutscript-agent/internal/db"
	"github.com/cutscript/cutscript-agent/internal/executor"
	"github.com/cutscript/cutscript-agent/internal/session"
	"github.com/cutscript/cutscript-agent/internal/timeline"
)

type staticOracle struct{ duration float64 }

func (o staticOracle) Lookup(context.Context, string) (float64, bool) {
	return o.duration, true
}

type allFiles struct{}

func (allFiles) Exists(string) bool { return true }

func newTestService(t *testing.T) *Service {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	factory := func() *session.Session {
		store := timeline.NewStore(nil)
		exec := executor.New(store, staticOracle{duration: 30}, allFiles{}, nil)
		sess := session.New(store, exec, nil, nil)
		sess.SetDebounce(0)
		return sess
	}

	return NewService(NewRepository(database.Conn()), factory, nil)
}

func TestService_CreateDocument(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "episode-1", "===\nLOAD /a.mp4")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if doc.ID == "" {
		t.Error("document id not assigned")
	}

	got, err := svc.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got == nil || got.Name != "episode-1" || got.Body != "===\nLOAD /a.mp4" {
		t.Errorf("got %+v", got)
	}

	count, err := svc.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("CountDocuments() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestService_CreateDocumentValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateDocument(ctx, "   ", ""); err == nil {
		t.Error("blank name should be rejected")
	}

	if _, err := svc.CreateDocument(ctx, "dup", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreateDocument(ctx, "dup", ""); err == nil {
		t.Error("duplicate name should be rejected")
	}
}

func TestService_UpdateBodyCompiles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "ep", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateBody(ctx, doc.ID, "===\nLOAD /a.mp4\nCUT 00:00:10.000"); err != nil {
		t.Fatalf("UpdateBody() error = %v", err)
	}

	sess, err := svc.Session(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got := len(sess.Segments()); got != 2 {
		t.Errorf("segments after update = %d, want 2", got)
	}

	// The body survives a restart of the session map.
	got, _ := svc.GetDocument(ctx, doc.ID)
	if got.Body != "===\nLOAD /a.mp4\nCUT 00:00:10.000" {
		t.Errorf("persisted body = %q", got.Body)
	}
}

func TestService_UpdateBodyMissingDocument(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.UpdateBody(context.Background(), "nope", "x"); err == nil {
		t.Error("update of missing document should fail")
	}
}

func TestService_SessionCompilesPersistedBody(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "ep", "===\nLOAD /a.mp4")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sess, err := svc.Session(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got := len(sess.Segments()); got != 1 {
		t.Errorf("first access should compile persisted body: %d segments", got)
	}

	again, err := svc.Session(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Session() second call: %v", err)
	}
	if again != sess {
		t.Error("session should be cached per document")
	}
}

func TestService_GetDocumentByNameOrCreate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.GetDocumentByNameOrCreate(ctx, "scratch")
	if err != nil {
		t.Fatalf("GetDocumentByNameOrCreate() error = %v", err)
	}

	same, err := svc.GetDocumentByNameOrCreate(ctx, "scratch")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if same.ID != doc.ID {
		t.Errorf("second call created a new document: %s vs %s", same.ID, doc.ID)
	}
}

func TestService_RenameDocument(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "old-name", "===\nLOAD /a.mp4")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateDocument(ctx, "taken", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	renamed, err := svc.RenameDocument(ctx, doc.ID, "new-name")
	if err != nil {
		t.Fatalf("RenameDocument() error = %v", err)
	}
	if renamed.Name != "new-name" {
		t.Errorf("name = %q, want new-name", renamed.Name)
	}

	got, _ := svc.GetDocument(ctx, doc.ID)
	if got.Name != "new-name" {
		t.Errorf("persisted name = %q", got.Name)
	}
	if got.Body != "===\nLOAD /a.mp4" {
		t.Errorf("rename touched the body: %q", got.Body)
	}

	if _, err := svc.RenameDocument(ctx, doc.ID, "taken"); err == nil {
		t.Error("rename to a taken name should be rejected")
	}
	if _, err := svc.RenameDocument(ctx, doc.ID, "  "); err == nil {
		t.Error("rename to a blank name should be rejected")
	}
	if _, err := svc.RenameDocument(ctx, "nope", "x"); err == nil {
		t.Error("rename of a missing document should be rejected")
	}

	// Renaming to the current name is a no-op, not a collision.
	if _, err := svc.RenameDocument(ctx, doc.ID, "new-name"); err != nil {
		t.Errorf("rename to own name failed: %v", err)
	}
}

func TestService_DeleteDocument(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "ep", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Session(ctx, doc.ID); err != nil {
		t.Fatalf("session: %v", err)
	}

	if err := svc.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}

	got, err := svc.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("document still present after delete: %+v", got)
	}
	if _, err := svc.Session(ctx, doc.ID); err == nil {
		t.Error("session for deleted document should fail")
	}
}

func TestRepository_Config(t *testing.T) {
	svc := newTestService(t)
	repo := svc.repo
	ctx := context.Background()

	val, err := repo.GetConfig(ctx, "auth_token")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if val != "" {
		t.Errorf("missing key should read empty, got %q", val)
	}

	if err := repo.SetConfig(ctx, "auth_token", "abc"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "xyz"); err != nil {
		t.Fatalf("SetConfig() upsert error = %v", err)
	}

	val, err = repo.GetConfig(ctx, "auth_token")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if val != "xyz" {
		t.Errorf("value = %q, want xyz", val)
	}
}
