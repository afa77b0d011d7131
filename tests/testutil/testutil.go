package testutil

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kendall-kelly/door-production-api/config"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/workflow"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

var dbCounter atomic.Int64

// NewTestDB opens a private in-memory sqlite database with foreign keys
// enforced and every table migrated. The database lives until the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts an active user with the given role and departments.
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role, depts ...workflow.Department) models.User {
	t.Helper()

	slug := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	user := models.User{
		Auth0ID: "auth0|" + slug,
		Name:    name,
		Email:   slug + "@example.com",
		Role:    role,
		Active:  true,
	}
	for _, d := range depts {
		user.Departments = append(user.Departments, models.UserDepartment{Department: d})
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

// CreateOffice inserts an office user.
func CreateOffice(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	return CreateUser(t, db, name, models.RoleOffice)
}

// CreateOperator inserts an operator assigned to depts.
func CreateOperator(t *testing.T, db *gorm.DB, name string, depts ...workflow.Department) models.User {
	t.Helper()
	return CreateUser(t, db, name, models.RoleOperator, depts...)
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
