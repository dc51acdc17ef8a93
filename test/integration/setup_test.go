//go:build integration

// Package integration runs the PostgreSQL repositories against a real
// database started in Docker. Run with: go test -tags integration ./test/integration
package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/admin/internal/domain/admin"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
)

// globalPool is shared by every test and initialized once in TestMain.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	code, err := run(ctx, connStr, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration setup: %v\n", err)
		code = 1
	}
	cleanup()
	os.Exit(code)
}

func run(ctx context.Context, connStr string, m *testing.M) (int, error) {
	migrator, err := db.NewMigrator(connStr)
	if err != nil {
		return 0, err
	}
	defer migrator.Close() //nolint:errcheck
	if _, err := migrator.Up(); err != nil {
		return 0, err
	}

	pool, err := db.NewPool(ctx, connStr, 10, 1)
	if err != nil {
		return 0, err
	}
	defer pool.Close()
	globalPool = pool

	return m.Run(), nil
}

func adminCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UserID: uuid.New(), Roles: []string{auth.RoleAdmin}})
}

// uniqueCode keeps tests independent on the shared database.
func uniqueCode(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}

func newAdminService() *admin.Service {
	return admin.NewService(
		admin.NewOrganizationRepo(globalPool),
		admin.NewDepartmentRepo(globalPool),
		admin.NewLocaleSettingRepo(globalPool),
		db.NewTxRunner(globalPool),
		audit.NewPGSink(globalPool),
	)
}

func createOrganization(t *testing.T) *admin.Organization {
	t.Helper()
	org, err := newAdminService().CreateOrganization(adminCtx(), admin.CreateOrganizationRequest{
		Name: "Integration Clinic",
		Code: uniqueCode("ORG"),
	})
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}
	return org
}

func countAuditRows(t *testing.T, entityID uuid.UUID) int {
	t.Helper()
	var n int
	err := globalPool.QueryRow(context.Background(),
		`SELECT count(*) FROM audit_log WHERE related_entity_id = $1`, entityID).Scan(&n)
	if err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	return n
}
