package department

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/id"
	"orgstruct/internal/core/tx"
	"orgstruct/internal/domain/orgstructure"
	"orgstruct/pkg/logger"
)

var tracer = otel.Tracer("orgstruct/department")

// Service exposes department reads and structural edits for one scope.
//
// Every write runs as: lock version (in process, then row lock) → load tree →
// mutate → persist changeset → commit. Writers on different versions do not
// block each other.
type Service struct {
	repo      Repository
	versions  VersionLookup
	txManager tx.Manager
	mutator   *Mutator
	recorder  orgstructure.MutationRecorder
	locks     *versionLocks
}

// NewService creates a department service. recorder may be nil.
func NewService(
	repo Repository,
	versions VersionLookup,
	txManager tx.Manager,
	identity *IdentityMapper,
	recorder orgstructure.MutationRecorder,
) *Service {
	if recorder == nil {
		recorder = orgstructure.NopRecorder{}
	}
	return &Service{
		repo:      repo,
		versions:  versions,
		txManager: txManager,
		mutator:   NewMutator(identity),
		recorder:  recorder,
		locks:     newVersionLocks(),
	}
}

// --- Reads ---

// GetTree returns the version's forest restricted by f.
func (s *Service) GetTree(ctx context.Context, versionID id.ID, f TreeFilter) ([]*TreeNode, error) {
	var nodes []*TreeNode
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		tree, err := s.readTree(ctx, versionID)
		if err != nil {
			return err
		}
		nodes = FilterTree(tree, f)
		return nil
	})
	return nodes, err
}

// GetDepartment returns a single department of the version.
func (s *Service) GetDepartment(ctx context.Context, versionID, deptID id.ID) (*Department, error) {
	var dept *Department
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		if err := s.versions.CheckVersion(ctx, versionID); err != nil {
			return err
		}
		d, err := s.repo.GetByID(ctx, versionID, deptID)
		if err != nil {
			return err
		}
		dept = d
		return nil
	})
	return dept, err
}

// Subtree returns the department carrying stableID and, optionally, all of
// its descendants in the given version.
func (s *Service) Subtree(ctx context.Context, versionID, stableID id.ID, includeDescendants bool) ([]*Department, error) {
	var out []*Department
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		tree, err := s.readTree(ctx, versionID)
		if err != nil {
			return err
		}
		out, err = tree.Subtree(stableID, includeDescendants)
		return err
	})
	return out, err
}

// --- Writes ---

// Create adds a department to the version.
func (s *Service) Create(ctx context.Context, versionID id.ID, in CreateInput) (*Department, error) {
	return s.mutate(ctx, "create", versionID, func(t *Tree) (*Department, Changeset, error) {
		return s.mutator.Create(t, in)
	})
}

// Update patches department metadata.
func (s *Service) Update(ctx context.Context, versionID, deptID id.ID, in UpdateInput) (*Department, error) {
	return s.mutate(ctx, "update", versionID, func(t *Tree) (*Department, Changeset, error) {
		return s.mutator.Update(t, deptID, in)
	})
}

// Move reparents a department; newParentID nil makes it a root.
func (s *Service) Move(ctx context.Context, versionID, deptID id.ID, newParentID *id.ID) (*Department, error) {
	return s.mutate(ctx, "move", versionID, func(t *Tree) (*Department, Changeset, error) {
		return s.mutator.Move(t, deptID, newParentID)
	})
}

// Deactivate marks a department inactive.
func (s *Service) Deactivate(ctx context.Context, versionID, deptID id.ID) (*Department, error) {
	return s.mutate(ctx, "deactivate", versionID, func(t *Tree) (*Department, Changeset, error) {
		return s.mutator.Deactivate(t, deptID)
	})
}

// Reactivate marks a department active again.
func (s *Service) Reactivate(ctx context.Context, versionID, deptID id.ID) (*Department, error) {
	return s.mutate(ctx, "reactivate", versionID, func(t *Tree) (*Department, Changeset, error) {
		return s.mutator.Reactivate(t, deptID)
	})
}

type mutation func(t *Tree) (*Department, Changeset, error)

func (s *Service) mutate(ctx context.Context, op string, versionID id.ID, fn mutation) (*Department, error) {
	ctx, span := tracer.Start(ctx, "department."+op)
	defer span.End()
	span.SetAttributes(attribute.String("version.id", versionID.String()))

	unlock := s.locks.Lock(versionID)
	defer unlock()

	var (
		dept *Department
		cs   Changeset
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.versions.LockVersion(ctx, versionID); err != nil {
			return err
		}
		tree, err := s.loadTree(ctx, versionID)
		if err != nil {
			return err
		}

		dept, cs, err = fn(tree)
		if err != nil {
			return err
		}
		return s.persist(ctx, cs)
	})

	s.recorder.RecordMutation("department", op, cs.Size(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !apperror.IsAppError(err) {
			logger.Error(ctx, "department mutation failed", "op", op, "version_id", versionID, "error", err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows.touched", cs.Size()))
	logger.Info(ctx, "department "+op,
		"version_id", versionID,
		"department_id", dept.ID,
		"code", dept.Code,
		"inserted", len(cs.Inserted),
		"updated", len(cs.Updated),
	)
	return dept, nil
}

func (s *Service) persist(ctx context.Context, cs Changeset) error {
	if len(cs.Inserted) > 0 {
		if err := s.repo.InsertBatch(ctx, cs.Inserted); err != nil {
			return fmt.Errorf("insert departments: %w", err)
		}
	}
	if len(cs.Updated) > 0 {
		if err := s.repo.UpdateBatch(ctx, cs.Updated); err != nil {
			return fmt.Errorf("update departments: %w", err)
		}
	}
	return nil
}

// readTree checks the version and loads its tree inside a read transaction.
func (s *Service) readTree(ctx context.Context, versionID id.ID) (*Tree, error) {
	if err := s.versions.CheckVersion(ctx, versionID); err != nil {
		return nil, err
	}
	return s.loadTree(ctx, versionID)
}

func (s *Service) loadTree(ctx context.Context, versionID id.ID) (*Tree, error) {
	rows, err := s.repo.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	tree, err := NewTree(versionID, rows)
	if err != nil {
		// Stored data violates the forest invariants; this is not the caller's fault.
		return nil, apperror.NewInternal(fmt.Errorf("load tree of version %s: %w", versionID, err))
	}
	return tree, nil
}
