package service

import (
	"context"
	"log/slog"
	"time"

	"devboard-trash/internal/model"
	"devboard-trash/internal/repository"
)

// AuditService records who asked the trash API for what. Logging is
// best-effort: a failed audit write never fails the operation it describes.
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, detail string, errText string) {
	if s == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Detail:     detail,
		Error:      errText,
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("audit log write failed", "action", action, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.repo.Query(ctx, query)
}
