// Package testutil holds testify mocks shared across package tests.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/webterm/internal/auth"
	"github.com/GriffinCanCode/webterm/internal/domain/shell"
)

// MockVerifier is a mock auth.Verifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(auth.Identity), args.Error(1)
}

// MockExecutor is a mock shell.Executor.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, req shell.Request) (shell.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(shell.Result), args.Error(1)
}

func (m *MockExecutor) EndSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// Command matches a shell.Request by command line.
func Command(line string) interface{} {
	return mock.MatchedBy(func(r shell.Request) bool { return r.Command == line })
}
