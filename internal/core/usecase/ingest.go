package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

type IngestPolicyUseCase struct {
	repo    ports.PolicyRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestPolicyUseCase(
	repo ports.PolicyRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestPolicyUseCase {
	return &IngestPolicyUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores the document, creates a pending policy record and enqueues
// its extraction.
func (uc *IngestPolicyUseCase) Upload(ctx context.Context, upload ports.PolicyUpload) (*domain.Policy, error) {
	if upload.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload policy", errors.New("document body is required"))
	}
	meta := upload.Metadata
	meta.Name = strings.TrimSpace(meta.Name)
	if meta.Name == "" {
		meta.Name = strings.TrimSuffix(filepath.Base(upload.Filename), filepath.Ext(upload.Filename))
	}
	if meta.Name == "" || meta.Name == "." {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload policy", errors.New("policy name is required"))
	}
	meta.Category = domain.ParseCategory(string(meta.Category))

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(upload.Filename))
	now := time.Now().UTC()

	size, err := uc.storage.Save(ctx, storageKey, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	policy := &domain.Policy{
		ID:       id,
		UserID:   upload.UserID,
		Metadata: meta,
		Document: domain.PolicyDocument{
			Filename:   upload.Filename,
			MimeType:   upload.MimeType,
			FileType:   domain.DetectFileType(upload.DeclaredType, upload.MimeType, upload.Filename),
			SizeBytes:  size,
			StorageKey: storageKey,
		},
		Status:    domain.ExtractionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, policy); err != nil {
		return nil, fmt.Errorf("create policy record: %w", err)
	}

	if err := uc.queue.PublishExtractionRequested(ctx, policy.ID); err != nil {
		return nil, fmt.Errorf("publish extraction request: %w", err)
	}

	return policy, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
