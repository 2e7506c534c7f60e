package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cutscript/cutscript-agent/internal/session"
)

// SessionFactory builds a fresh compile session with its own segment
// store and executor. Injected by the composition root.
type SessionFactory func() *session.Session

// ProjectService is the document-facing API surface.
type ProjectService interface {
	CreateDocument(ctx context.Context, name, body string) (*Document, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	UpdateBody(ctx context.Context, id, body string) (*Document, error)
	RenameDocument(ctx context.Context, id, name string) (*Document, error)
	DeleteDocument(ctx context.Context, id string) error
	CountDocuments(ctx context.Context) (int, error)
	Session(ctx context.Context, id string) (*session.Session, error)
}

// Service stores documents and keeps one live compile session per
// document, created on first use from the persisted body.
type Service struct {
	repo       Repository
	newSession SessionFactory
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func NewService(repo Repository, factory SessionFactory, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		newSession: factory,
		logger:     logger,
		sessions:   make(map[string]*session.Session),
	}
}

func (s *Service) CreateDocument(ctx context.Context, name, body string) (*Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("document name is required")
	}

	existing, err := s.repo.GetDocumentByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("document %q already exists", name)
	}

	now := time.Now()
	doc := &Document{
		ID:        NewID(),
		Name:      name,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("document created", "document_id", doc.ID, "name", name)
	}
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// GetDocumentByNameOrCreate returns the named document, creating an
// empty one when it does not exist yet. Used by the script file
// watcher.
func (s *Service) GetDocumentByNameOrCreate(ctx context.Context, name string) (*Document, error) {
	doc, err := s.repo.GetDocumentByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc, nil
	}
	return s.CreateDocument(ctx, name, "")
}

func (s *Service) ListDocuments(ctx context.Context) ([]*Document, error) {
	return s.repo.ListDocuments(ctx)
}

// UpdateBody persists the new script text and recompiles the
// document's session synchronously.
func (s *Service) UpdateBody(ctx context.Context, id, body string) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}

	if err := s.repo.UpdateDocumentBody(ctx, id, body); err != nil {
		return nil, err
	}
	doc.Body = body
	doc.UpdatedAt = time.Now()

	sess := s.sessionFor(doc)
	sess.Compile(ctx, body)

	return doc, nil
}

// RenameDocument changes a document's unique name. The body and the
// live session are untouched.
func (s *Service) RenameDocument(ctx context.Context, id, name string) (*Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("document name is required")
	}

	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}

	existing, err := s.repo.GetDocumentByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		return nil, fmt.Errorf("document %q already exists", name)
	}

	if err := s.repo.RenameDocument(ctx, id, name); err != nil {
		return nil, err
	}
	doc.Name = name
	doc.UpdatedAt = time.Now()
	return doc, nil
}

func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return s.repo.DeleteDocument(ctx, id)
}

func (s *Service) CountDocuments(ctx context.Context) (int, error) {
	return s.repo.CountDocuments(ctx)
}

// Session returns the live session for a document, compiling the
// persisted body on first access.
func (s *Service) Session(ctx context.Context, id string) (*session.Session, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	sess = s.sessionFor(doc)
	return sess, nil
}

func (s *Service) sessionFor(doc *Document) *session.Session {
	s.mu.Lock()
	sess, ok := s.sessions[doc.ID]
	if !ok {
		sess = s.newSession()
		s.sessions[doc.ID] = sess
		s.mu.Unlock()
		sess.Compile(context.Background(), doc.Body)
		return sess
	}
	s.mu.Unlock()
	return sess
}
