// Package testutil provides mock implementations for the interfaces of the
// fuefit core library (pkg/fit), plus small filesystem helpers shared by
// tests across packages.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/gfon/fuefit/pkg/fit"
)

// MockHooks provides a mock implementation of the fit.Hooks interface.
// Configure expectations using testify/mock methods (e.g. .On("OnRunComplete", ...)).
type MockHooks struct {
	mock.Mock
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// OnFileStatusUpdate mocks the OnFileStatusUpdate method.
func (m *MockHooks) OnFileStatusUpdate(path string, status fit.Status, message string, duration time.Duration) error {
	args := m.Called(path, status, message, duration)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report fit.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

// MockFitter provides a mock implementation of the fit.Fitter interface.
type MockFitter struct {
	mock.Mock
}

// Fit mocks the Fit method.
func (m *MockFitter) Fit(ctx context.Context, points []fit.Point) ([]float64, error) {
	args := m.Called(ctx, points)
	coeffs, _ := args.Get(0).([]float64)
	return coeffs, args.Error(1)
}

// DiscardLogger returns an slog handler that drops everything, for tests
// that require a non-nil logging backend.
func DiscardLogger() slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
}
