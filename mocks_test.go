package visitor_test

import (
	"context"
	"fmt"

	visitor "github.com/goliatone/go-visitor"
	"github.com/stretchr/testify/mock"
)

// MockUserTracker implements visitor.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*visitor.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*visitor.User), args.Error(1)
}

// testLogger implements visitor.Logger, capturing lines per level
type testLogger struct {
	debugs []string
	infos  []string
	warns  []string
	errors []string
}

func (l *testLogger) Debug(format string, args ...any) {
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}

func (l *testLogger) Info(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *testLogger) Warn(format string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *testLogger) Error(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

// MockSender implements visitor.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *visitor.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
