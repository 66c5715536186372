package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-dataflow/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type TransferStore struct {
	db    *bun.DB
	repo  repository.Repository[*transferRecord]
	nowFn func() time.Time
}

func NewTransferStore(db *bun.DB) (*TransferStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*transferRecord](db, transferHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid transfer repository wiring: %w", err)
		}
	}
	return &TransferStore{
		db:    db,
		repo:  repo,
		nowFn: func() time.Time { return time.Now().UTC() },
	}, nil
}

// NewTransferStoreFromPersistence accepts a *bun.DB or any client exposing
// DB() *bun.DB, such as a go-persistence-bun client.
func NewTransferStoreFromPersistence(client any) (*TransferStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewTransferStore(db)
}

func (s *TransferStore) DB() *bun.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *TransferStore) Get(ctx context.Context, id string) (core.TransferRecord, error) {
	if s == nil || s.db == nil {
		return core.TransferRecord{}, fmt.Errorf("sqlstore: transfer store is not configured")
	}
	id = strings.TrimSpace(id)
	record, err := s.find(ctx, id)
	if err != nil {
		return core.TransferRecord{}, err
	}
	if record == nil {
		return core.TransferRecord{}, core.NewNotFoundError("sqlstore: transfer record not found", map[string]any{"request_id": id})
	}
	return record.toDomain()
}

// Save inserts the record on first sight of its request id and updates it
// afterwards. CreatedAt is kept from the first insert.
func (s *TransferStore) Save(ctx context.Context, in core.TransferRecord) (core.TransferRecord, error) {
	if s == nil || s.repo == nil {
		return core.TransferRecord{}, fmt.Errorf("sqlstore: transfer store is not configured")
	}
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return core.TransferRecord{}, fmt.Errorf("sqlstore: transfer record id is required")
	}
	now := s.nowFn()
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = now
	}

	existing, err := s.find(ctx, in.ID)
	if err != nil {
		return core.TransferRecord{}, err
	}
	if existing == nil {
		if in.CreatedAt.IsZero() {
			in.CreatedAt = now
		}
		created, createErr := s.repo.Create(ctx, newTransferRecord(uuid.NewString(), in))
		if createErr != nil {
			return core.TransferRecord{}, createErr
		}
		return created.toDomain()
	}

	in.CreatedAt = existing.CreatedAt
	record := newTransferRecord(existing.ID, in)
	if _, err := s.repo.Update(ctx, record, repository.UpdateByID(existing.ID)); err != nil {
		return core.TransferRecord{}, err
	}
	return record.toDomain()
}

func (s *TransferStore) List(ctx context.Context, filter core.TransferFilter) ([]core.TransferRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: transfer store is not configured")
	}
	selectors := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if filter.State != nil {
				q = q.Where("?TableAlias.state = ?", filter.State.Code())
			}
			return q.OrderExpr("?TableAlias.created_at ASC, ?TableAlias.transfer_id ASC")
		}),
	}
	if filter.Limit > 0 {
		selectors = append(selectors, repository.SelectPaginate(filter.Limit, 0))
	}
	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	out := make([]core.TransferRecord, 0, len(records))
	for _, record := range records {
		domain, convErr := record.toDomain()
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, domain)
	}
	return out, nil
}

func (s *TransferStore) find(ctx context.Context, transferID string) (*transferRecord, error) {
	if transferID == "" {
		return nil, nil
	}
	record := &transferRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.transfer_id = ?", transferID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
