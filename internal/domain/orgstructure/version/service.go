package version

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orgstruct/internal/core/apperror"
	appctx "orgstruct/internal/core/context"
	"orgstruct/internal/core/id"
	"orgstruct/internal/core/tx"
	"orgstruct/internal/domain/orgstructure"
	"orgstruct/internal/domain/orgstructure/department"
	"orgstruct/pkg/logger"
)

var tracer = otel.Tracer("orgstruct/version")

// Service owns the versions of each scope.
// Writes take a scope-wide lock so uniqueness and overlap checks see every
// committed version of the scope.
type Service struct {
	repo        Repository
	departments DepartmentStore
	txManager   tx.Manager
	identity    *department.IdentityMapper
	cache       AsOfCache
	recorder    orgstructure.MutationRecorder
	now         func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache enables as-of resolution caching.
func WithCache(c AsOfCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRecorder sets the mutation recorder.
func WithRecorder(r orgstructure.MutationRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a version service.
func NewService(
	repo Repository,
	departments DepartmentStore,
	txManager tx.Manager,
	identity *department.IdentityMapper,
	opts ...Option,
) *Service {
	s := &Service{
		repo:        repo,
		departments: departments,
		txManager:   txManager,
		identity:    identity,
		recorder:    orgstructure.NopRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CopyResult describes a finished copy.
type CopyResult struct {
	Version     *Version
	Departments int
}

// --- Reads ---

// GetVersion returns a version of the current scope.
func (s *Service) GetVersion(ctx context.Context, versionID id.ID) (*Version, error) {
	scopeID, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, scopeID, versionID)
}

// ListVersions returns the current scope's versions ordered by orderBy.
func (s *Service) ListVersions(ctx context.Context, orderBy string) ([]*Version, error) {
	scopeID, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.ListByScope(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return NewRegistry(versions).Sort(orderBy)
}

// ResolveAsOf returns the version in effect on date.
func (s *Service) ResolveAsOf(ctx context.Context, scopeID string, date time.Time) (*Version, error) {
	date = NormalizeDate(date)
	if date.IsZero() {
		return nil, apperror.NewValidation("date is required").WithDetail("field", "date")
	}

	gen, cached := s.lookupCached(ctx, scopeID, date)
	if cached != nil {
		return cached, nil
	}

	versions, err := s.repo.ListByScope(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	v, ok := NewRegistry(versions).ResolveAsOf(date)
	if !ok {
		return nil, apperror.NewVersionNotFoundAsOf(scopeID, date)
	}

	if s.cache != nil && gen >= 0 {
		if err := s.cache.Set(ctx, scopeID, gen, date, v.ID); err != nil {
			logger.Warn(ctx, "as-of cache set failed", "error", err)
		}
	}
	return v, nil
}

// lookupCached returns the cached version (if still valid) and the generation
// to store a fresh result under; gen is -1 when the cache is unusable.
func (s *Service) lookupCached(ctx context.Context, scopeID string, date time.Time) (int64, *Version) {
	if s.cache == nil {
		return -1, nil
	}
	gen, err := s.cache.Generation(ctx, scopeID)
	if err != nil {
		logger.Warn(ctx, "as-of cache unavailable", "error", err)
		return -1, nil
	}
	versionID, hit, err := s.cache.Get(ctx, scopeID, gen, date)
	if err != nil {
		logger.Warn(ctx, "as-of cache get failed", "error", err)
		return gen, nil
	}
	if !hit {
		return gen, nil
	}
	v, err := s.repo.GetByID(ctx, scopeID, versionID)
	if err != nil || !v.Contains(date) {
		return gen, nil
	}
	return gen, v
}

// CheckVersion implements department.VersionLookup.
func (s *Service) CheckVersion(ctx context.Context, versionID id.ID) error {
	_, err := s.GetVersion(ctx, versionID)
	return err
}

// LockVersion implements department.VersionLookup.
func (s *Service) LockVersion(ctx context.Context, versionID id.ID) error {
	scopeID, err := scopeFrom(ctx)
	if err != nil {
		return err
	}
	_, err = s.repo.GetForUpdate(ctx, scopeID, versionID)
	return err
}

// --- Writes ---

// CreateVersion creates a version with an empty tree.
func (s *Service) CreateVersion(ctx context.Context, in CreateInput) (*Version, error) {
	scopeID, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	v, err := in.build(scopeID, s.identity.Mint(), s.now())
	if err != nil {
		return nil, err
	}

	err = s.write(ctx, "create", scopeID, func(ctx context.Context) (int, error) {
		if err := s.checkAgainstScope(ctx, scopeID, v, false); err != nil {
			return 0, err
		}
		if err := s.repo.Insert(ctx, v); err != nil {
			return 0, fmt.Errorf("insert version: %w", err)
		}
		return 1, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "version created", "version_id", v.ID, "code", v.Code)
	return v, nil
}

// CopyVersion creates a version holding a structural clone of sourceID's tree.
// Cloned departments get new ids and keep their stable ids.
func (s *Service) CopyVersion(ctx context.Context, sourceID id.ID, in CreateInput) (*CopyResult, error) {
	scopeID, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	v, err := in.build(scopeID, s.identity.Mint(), s.now())
	if err != nil {
		return nil, err
	}

	var copied int
	err = s.write(ctx, "copy", scopeID, func(ctx context.Context) (int, error) {
		source, err := s.repo.GetForUpdate(ctx, scopeID, sourceID)
		if err != nil {
			return 0, err
		}
		if err := s.checkAgainstScope(ctx, scopeID, v, false); err != nil {
			return 0, err
		}

		rows, err := s.departments.ListByVersion(ctx, source.ID)
		if err != nil {
			return 0, fmt.Errorf("list source departments: %w", err)
		}
		srcTree, err := department.NewTree(source.ID, rows)
		if err != nil {
			return 0, apperror.NewInternal(fmt.Errorf("load tree of version %s: %w", source.ID, err))
		}
		clone, _, err := s.identity.CloneTree(srcTree, v.ID)
		if err != nil {
			return 0, fmt.Errorf("clone tree: %w", err)
		}

		if err := s.repo.Insert(ctx, v); err != nil {
			return 0, fmt.Errorf("insert version: %w", err)
		}
		if clone.Len() > 0 {
			if err := s.departments.InsertBatch(ctx, clone.Nodes()); err != nil {
				return 0, fmt.Errorf("insert departments: %w", err)
			}
		}
		copied = clone.Len()
		return 1 + copied, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "version copied",
		"source_version_id", sourceID,
		"version_id", v.ID,
		"code", v.Code,
		"departments", copied,
	)
	return &CopyResult{Version: v, Departments: copied}, nil
}

// UpdateVersion patches a version; the new code and interval are checked
// against every other version of the scope.
func (s *Service) UpdateVersion(ctx context.Context, versionID id.ID, in UpdateInput) (*Version, error) {
	scopeID, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	var updated *Version
	err = s.write(ctx, "update", scopeID, func(ctx context.Context) (int, error) {
		current, err := s.repo.GetForUpdate(ctx, scopeID, versionID)
		if err != nil {
			return 0, err
		}
		updated, err = in.apply(current, s.now())
		if err != nil {
			return 0, err
		}
		if err := s.checkAgainstScope(ctx, scopeID, updated, true); err != nil {
			return 0, err
		}
		if err := s.repo.Update(ctx, updated); err != nil {
			return 0, fmt.Errorf("update version: %w", err)
		}
		return 1, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "version updated", "version_id", updated.ID, "code", updated.Code)
	return updated, nil
}

func (s *Service) checkAgainstScope(ctx context.Context, scopeID string, candidate *Version, isUpdate bool) error {
	versions, err := s.repo.ListByScope(ctx, scopeID)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	reg := NewRegistry(versions)
	if isUpdate {
		return reg.CheckUpdate(candidate)
	}
	return reg.CheckCreate(candidate)
}

// write runs fn in a transaction under the scope lock, then drops cached
// as-of results for the scope.
func (s *Service) write(ctx context.Context, op, scopeID string, fn func(ctx context.Context) (int, error)) error {
	ctx, span := tracer.Start(ctx, "version."+op)
	defer span.End()
	span.SetAttributes(attribute.String("scope.id", scopeID))

	var touched int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockScope(ctx, scopeID); err != nil {
			return fmt.Errorf("lock scope: %w", err)
		}
		n, err := fn(ctx)
		touched = n
		return err
	})
	s.recorder.RecordMutation("version", op, touched, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !apperror.IsAppError(err) {
			logger.Error(ctx, "version write failed", "op", op, "error", err)
		}
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, scopeID); err != nil {
			logger.Warn(ctx, "as-of cache invalidation failed", "scope_id", scopeID, "error", err)
		}
	}
	return nil
}

func scopeFrom(ctx context.Context) (string, error) {
	scopeID := appctx.GetScopeID(ctx)
	if scopeID == "" {
		return "", apperror.NewValidation("scope is required").WithDetail("header", "X-Scope-ID")
	}
	return scopeID, nil
}
