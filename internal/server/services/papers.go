package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/storage"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
)

// Upload is a file received from the paper form.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// PaperView is a paper with a download link.
type PaperView struct {
	*models.Paper
	URL string
}

type PaperService struct {
	gateways GatewayFactory
	files    storage.FileStore
	log      logging.Logger
}

func NewPaperService(gateways GatewayFactory, files storage.FileStore, log logging.Logger) *PaperService {
	return &PaperService{gateways: gateways, files: files, log: log.With("module", "papers")}
}

// Upload stores the file and records it as a paper of userID. The object
// is removed again if the row cannot be written.
func (s *PaperService) Upload(ctx context.Context, userID string, up Upload) (*models.Paper, error) {
	name := uploadName(up.Filename)
	if up.Body == nil || name == "" || name == "." || name == string(filepath.Separator) {
		return nil, FieldErrors{"file": common.ErrMissingFile.Error()}
	}

	gw := s.gateways()
	rec, err := gw.FindByID(ctx, store.KindUser, userID)
	if err != nil {
		return nil, err
	}
	user, ok := rec.(*models.User)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected record %T", common.ErrorInternal, rec)
	}

	key := storage.NewStorageKey(name)
	if err := s.files.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	paper := &models.Paper{}
	paper.SetFile(name, up.Size, key)
	user.AddPaper(paper)

	if err := gw.Persist(paper); err != nil {
		return nil, err
	}
	if err := gw.Flush(ctx); err != nil {
		if derr := s.files.Delete(ctx, key); derr != nil {
			s.log.Warn(ctx, "orphaned upload", "key", key, "error", derr)
		}
		return nil, err
	}

	s.log.Info(ctx, "paper uploaded", "paper_id", paper.ID, "user_id", userID, "size", up.Size)
	return paper, nil
}

// uploadName reduces a client supplied filename to its last element.
// Browsers on Windows may send the full path with backslashes.
func uploadName(filename string) string {
	name := strings.TrimSpace(filename)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	return filepath.Base(name)
}

// FindByStorageKey returns the paper whose file is stored under key.
func (s *PaperService) FindByStorageKey(ctx context.Context, key string) (*models.Paper, error) {
	return s.gateways().FindPaperByStorageKey(ctx, key)
}

func (s *PaperService) ListForUser(ctx context.Context, userID string) ([]PaperView, error) {
	papers, err := s.gateways().ListPapersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, papers)
}

// ListAll returns every paper with its owner.
func (s *PaperService) ListAll(ctx context.Context) ([]PaperView, error) {
	papers, err := s.gateways().ListPapers(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, papers)
}

func (s *PaperService) views(ctx context.Context, papers []*models.Paper) ([]PaperView, error) {
	out := make([]PaperView, 0, len(papers))
	for _, p := range papers {
		u, err := s.files.URL(ctx, p.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("paper %s url: %w", p.ID, err)
		}
		out = append(out, PaperView{Paper: p, URL: u})
	}
	return out, nil
}
