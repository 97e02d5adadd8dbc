package testutil

import (
	"context"
	"net/mail"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/student"
	"github.com/trezcool/smartseats/core/user"
)

// Logger discards everything; cleanup failures under test are asserted on
// repo state, not log output.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func (Logger) Debug(msg string, args ...interface{}) {}
func (Logger) Info(msg string, args ...interface{})  {}
func (Logger) Warn(msg string, args ...interface{})  {}
func (Logger) Error(msg string, args ...interface{}) {}
func (Logger) Fatal(msg string, args ...interface{}) {}

// NewTestConfig returns a Config suitable for tests: no external services,
// short deltas, fixed secret.
func NewTestConfig() *core.Config {
	return &core.Config{
		Debug:                     true,
		TestMode:                  true,
		Env:                       "test",
		Build:                     "test",
		AppName:                   "SmartSeats",
		WorkDir:                   repoRoot(),
		SecretKey:                 "s3cr3t-t35t-k3y",
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "SmartSeats", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Addr:                      ":8000",
			CookieName:                "token",
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ShutdownTimeout:           5 * time.Second,
		},
	}
}

// repoRoot walks up from the current directory to the module root so tests
// can locate assets regardless of the package they run from.
func repoRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err = os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		if dir == filepath.Dir(dir) {
			return wd
		}
	}
}

func CreateUser(t *testing.T, repo user.Repository, name, email, pwd string) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, name, yeargroup string, attendance float64) student.Student {
	t.Helper()

	std, err := repo.CreateStudent(context.Background(), student.Student{
		Name:       name,
		Yeargroup:  yeargroup,
		Attendance: attendance,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateClass(t *testing.T, repo class.Repository, name string, userID primitive.ObjectID) class.Class {
	t.Helper()

	cls, err := repo.CreateClass(context.Background(), class.Class{
		Name:     name,
		UserID:   userID,
		Students: []primitive.ObjectID{},
		Tests:    []class.Test{},
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}
