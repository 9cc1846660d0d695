package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	appctx "orgstruct/internal/core/context"
	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/department"
	"orgstruct/internal/domain/orgstructure/version"
	"orgstruct/internal/infrastructure/storage/postgres"
	"orgstruct/internal/infrastructure/storage/postgres/orgstructure_repo"
	"orgstruct/pkg/logger"
)

// seedNode is one department of the demo tree.
type seedNode struct {
	code     string
	name     string
	unit     department.OrgUnitType
	children []seedNode
}

var demoTree = seedNode{
	code: "CORP", name: "Corporation", unit: department.UnitCompany,
	children: []seedNode{
		{code: "SALES", name: "Sales", unit: department.UnitDivision, children: []seedNode{
			{code: "SALES-EU", name: "Sales Europe", unit: department.UnitDepartment},
			{code: "SALES-US", name: "Sales Americas", unit: department.UnitDepartment},
		}},
		{code: "ENG", name: "Engineering", unit: department.UnitDivision, children: []seedNode{
			{code: "PLATFORM", name: "Platform", unit: department.UnitTeam},
		}},
		{code: "HR", name: "Human Resources", unit: department.UnitDepartment},
	},
}

func newSeedCmd() *cobra.Command {
	var (
		scopeID   string
		code      string
		effective string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo version with a small department tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := uuid.Parse(scopeID)
			if err != nil {
				return fmt.Errorf("invalid --scope: %w", err)
			}
			date, err := version.ParseDate(effective)
			if err != nil {
				return err
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}

			ctx := logger.WithLogger(cmd.Context(), log)
			ctx = appctx.WithScope(ctx, &appctx.ScopeContext{ScopeID: scope.String(), Actor: "orgctl"})

			pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Postgres))
			if err != nil {
				return err
			}
			defer pool.Close()

			txManager := postgres.NewTxManager(pool)
			departmentRepo := orgstructure_repo.NewDepartmentRepo(txManager)
			identity := department.NewIdentityMapper()
			versions := version.NewService(orgstructure_repo.NewVersionRepo(txManager), departmentRepo, txManager, identity)
			departments := department.NewService(departmentRepo, versions, txManager, identity, nil)

			v, err := versions.CreateVersion(ctx, version.CreateInput{
				Code:          code,
				Name:          "Demo structure",
				EffectiveDate: date,
			})
			if err != nil {
				return err
			}

			n, err := seedTree(ctx, departments, v.ID, nil, demoTree, 0)
			if err != nil {
				return err
			}

			log.Infow("seed complete", "version_id", v.ID, "departments", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeID, "scope", "", "Scope UUID (required)")
	cmd.Flags().StringVar(&code, "code", "DEMO", "Version code")
	cmd.Flags().StringVar(&effective, "effective-date", time.Now().UTC().Format(version.DateLayout), "Effective date (UTC, YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("scope")
	return cmd
}

// seedTree creates node and its children depth-first; it returns the number created.
func seedTree(ctx context.Context, svc *department.Service, versionID id.ID, parentID *id.ID, node seedNode, order int) (int, error) {
	unit := node.unit
	d, err := svc.Create(ctx, versionID, department.CreateInput{
		Code:        node.code,
		Name:        node.name,
		ParentID:    parentID,
		SortOrder:   order,
		OrgUnitType: &unit,
	})
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", node.code, err)
	}

	created := 1
	for i, child := range node.children {
		n, err := seedTree(ctx, svc, versionID, id.Ptr(d.ID), child, i)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}
