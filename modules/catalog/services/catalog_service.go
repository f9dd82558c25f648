package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

// CatalogService owns direct access to the content store. Privileged writes
// (center and super admins) land here without any moderation ledger entry;
// branch-admin mutations never reach this service directly.
type CatalogService struct {
	repo record.Repository
}

func NewCatalogService(repo record.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) Repo() record.Repository {
	return s.repo
}

func (s *CatalogService) Create(ctx context.Context, branchID uuid.UUID, kind record.Kind, data json.RawMessage) (*record.Record, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*record.Record, error) {
		rec, err := s.repo.Insert(txCtx, &record.Record{
			BranchID: branchID,
			Kind:     kind,
			Data:     data,
		})
		if err != nil {
			return nil, mapStoreError(err)
		}
		return rec, nil
	})
}

func (s *CatalogService) Update(ctx context.Context, kind record.Kind, id uuid.UUID, patch json.RawMessage) (*record.Record, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*record.Record, error) {
		rec, err := s.repo.MergeData(txCtx, kind, id, patch)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return rec, nil
	})
}

func (s *CatalogService) Delete(ctx context.Context, kind record.Kind, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SoftDelete(txCtx, kind, id); err != nil {
			return mapStoreError(err)
		}
		return nil
	})
}

func (s *CatalogService) GetByID(ctx context.Context, kind record.Kind, id uuid.UUID) (*record.Record, error) {
	rec, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return rec, nil
}

func (s *CatalogService) List(ctx context.Context, kind record.Kind, branchID uuid.UUID, limit int) ([]*record.Record, error) {
	recs, err := s.repo.List(ctx, kind, branchID, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return recs, nil
}

func mapStoreError(err error) error {
	var svcErr *serrors.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return serrors.NewServiceError(http.StatusNotFound, "NOT_FOUND", "record not found", err)
	}
	return err
}
