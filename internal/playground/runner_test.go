package playground

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"dbplayground/internal/adapter/db/gormstore/storetest"
	"dbplayground/internal/usecase/user"
	pkgerrors "dbplayground/pkg/errors"
)

// MockUsecase is a mock implementation of user.Usecase
type MockUsecase struct {
	mock.Mock
}

func (m *MockUsecase) CreateUser(ctx context.Context, in user.CreateUserRequest) (*user.UserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.UserResponse), args.Error(1)
}

func (m *MockUsecase) FindUser(ctx context.Context, in user.FindUserRequest) (*user.UserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.UserResponse), args.Error(1)
}

func (m *MockUsecase) GetUser(ctx context.Context, in user.GetUserRequest) (*user.UserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.UserResponse), args.Error(1)
}

func (m *MockUsecase) ListUsers(ctx context.Context) (*user.ListUsersResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.ListUsersResponse), args.Error(1)
}

func (m *MockUsecase) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var lookupNick = user.FindUserRequest{FirstName: "Nick"}

// setupStoreRunner wires a Runner to the real service over an in-memory store.
func setupStoreRunner(t *testing.T) (*Runner, *bytes.Buffer, *observer.ObservedLogs, user.Usecase) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := user.New(storetest.NewRepo(t), zaptest.NewLogger(t))
	out := &bytes.Buffer{}
	return NewRunner(svc, out, zap.New(core)), out, logs, svc
}

func outputLines(out *bytes.Buffer) []string {
	text := strings.TrimRight(out.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// splitOutput separates rendered records from plain lines, keeping order.
func splitOutput(lines []string) (records []Record, plain []string) {
	for _, line := range lines {
		var rec Record
		if strings.HasPrefix(line, "{") && json.Unmarshal([]byte(line), &rec) == nil {
			records = append(records, rec)
			continue
		}
		plain = append(plain, line)
	}
	return records, plain
}

func TestRun_SeededSession(t *testing.T) {
	runner, out, _, _ := setupStoreRunner(t)

	err := runner.Run(context.Background(), Options{Seed: true, Lookup: lookupNick})
	require.NoError(t, err)

	lines := outputLines(out)
	require.Len(t, lines, 7)

	// seed echoes come first, in insertion order
	seeded, plain := splitOutput(lines[:3])
	require.Empty(t, plain)
	require.Len(t, seeded, 3)
	for i, want := range SeedUsers {
		assert.Equal(t, want.FirstName, seeded[i].FirstName)
		assert.Equal(t, want.LastName, seeded[i].LastName)
		assert.Equal(t, want.Age, seeded[i].Age)
	}

	records, names := splitOutput(lines[3:])
	require.Len(t, records, 1)
	assert.Equal(t, "Nick", records[0].FirstName)
	assert.Equal(t, "Schmitt", records[0].LastName)
	assert.Equal(t, 28, records[0].Age)
	assert.Equal(t, seeded[2].ID, records[0].ID)

	assert.Equal(t, []string{"Rome Bell", "Brian Krabec", "Nick Schmitt"}, names)
}

func TestRun_SeedSkippedWhenPopulated(t *testing.T) {
	runner, out, logs, svc := setupStoreRunner(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, user.CreateUserRequest{FirstName: "Ada", LastName: "Lovelace", Age: 36})
	require.NoError(t, err)

	require.NoError(t, runner.Run(ctx, Options{Seed: true, Lookup: user.FindUserRequest{FirstName: "Ada"}}))

	n, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, logs.FilterMessage("table already populated, skipping seed").Len())

	records, names := splitOutput(outputLines(out))
	require.Len(t, records, 1)
	assert.Equal(t, "Ada", records[0].FirstName)
	assert.Equal(t, []string{"Ada Lovelace"}, names)
}

func TestRun_LookupNoMatchIsReportedNotReturned(t *testing.T) {
	runner, out, logs, _ := setupStoreRunner(t)

	err := runner.Run(context.Background(), Options{Lookup: lookupNick})
	require.NoError(t, err)

	assert.Equal(t, []string{"no user matches first_name=Nick"}, outputLines(out))
	assert.Equal(t, 1, logs.FilterMessage("lookup found no user").Len())
}

func TestRun_ScanWritesOneLinePerRecord(t *testing.T) {
	runner, out, _, svc := setupStoreRunner(t)
	ctx := context.Background()

	const n = 25
	want := make([]string, n)
	for i := 0; i < n; i++ {
		req := user.CreateUserRequest{FirstName: fmt.Sprintf("First%c", 'A'+i), LastName: "Last", Age: i}
		_, err := svc.CreateUser(ctx, req)
		require.NoError(t, err)
		want[i] = req.FirstName + " Last"
	}

	require.NoError(t, runner.Run(ctx, Options{Lookup: user.FindUserRequest{FirstName: "FirstC"}}))

	records, names := splitOutput(outputLines(out))
	require.Len(t, records, 1)
	assert.Equal(t, "FirstC", records[0].FirstName)
	assert.Equal(t, want, names)
}

func TestRun_LookupFailureIsLoggedAndSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mockUC := new(MockUsecase)
	out := &bytes.Buffer{}
	runner := NewRunner(mockUC, out, zap.New(core))
	ctx := context.Background()

	lookupErr := pkgerrors.NewInternalError("failed to find user", errors.New("connection refused"))
	mockUC.On("FindUser", ctx, lookupNick).Return(nil, lookupErr)
	mockUC.On("ListUsers", ctx).Return(&user.ListUsersResponse{Users: []user.UserResponse{
		{ID: 1, FirstName: "Rome", LastName: "Bell"},
	}}, nil)

	err := runner.Run(ctx, Options{Lookup: lookupNick})
	require.NoError(t, err)

	lines := outputLines(out)
	assert.ElementsMatch(t, []string{"failed to find user: connection refused", "Rome Bell"}, lines)

	entries := logs.FilterMessage("lookup failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	mockUC.AssertExpectations(t)
}

func TestRun_ScanFailureIsReturned(t *testing.T) {
	mockUC := new(MockUsecase)
	out := &bytes.Buffer{}
	runner := NewRunner(mockUC, out, zaptest.NewLogger(t))
	ctx := context.Background()

	now := time.Now()
	mockUC.On("FindUser", ctx, lookupNick).Return(&user.UserResponse{
		ID: 3, FirstName: "Nick", LastName: "Schmitt", Age: 28, CreatedAt: now, UpdatedAt: now,
	}, nil)
	scanErr := errors.New("no such table: users")
	mockUC.On("ListUsers", ctx).Return(nil, scanErr)

	err := runner.Run(ctx, Options{Lookup: lookupNick})
	require.Error(t, err)
	assert.ErrorIs(t, err, scanErr)

	// the lookup still completes independently
	records, plain := splitOutput(outputLines(out))
	require.Len(t, records, 1)
	assert.Empty(t, plain)
	assert.Equal(t, "Nick", records[0].FirstName)
}

func TestRun_SeedFailureStopsRun(t *testing.T) {
	mockUC := new(MockUsecase)
	out := &bytes.Buffer{}
	runner := NewRunner(mockUC, out, zaptest.NewLogger(t))
	ctx := context.Background()

	mockUC.On("CountUsers", ctx).Return(int64(0), nil)
	mockUC.On("CreateUser", ctx, SeedUsers[0]).Return(nil, errors.New("read-only database"))

	err := runner.Run(ctx, Options{Seed: true, Lookup: lookupNick})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed Rome Bell")
	assert.Empty(t, out.String())

	mockUC.AssertNotCalled(t, "FindUser", mock.Anything, mock.Anything)
	mockUC.AssertNotCalled(t, "ListUsers", mock.Anything)
}

func TestRun_CanceledContextReachesStore(t *testing.T) {
	runner, out, logs, _ := setupStoreRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Run(ctx, Options{Lookup: lookupNick})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "scan")

	// the lookup hit the same canceled context; it is reported and swallowed
	lines := outputLines(out)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "context canceled")
	assert.Len(t, logs.FilterMessage("lookup failed").All(), 1)
}

func TestRun_ExpiredDeadlineStopsSeed(t *testing.T) {
	runner, out, _, svc := setupStoreRunner(t)

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	err := runner.Run(ctx, Options{Seed: true, Lookup: lookupNick})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, out.String())

	n, err := svc.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRender(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CET", 3600))

	line, err := Render(user.UserResponse{ID: 3, FirstName: "Nick", LastName: "Schmitt", Age: 28, CreatedAt: ts, UpdatedAt: ts})
	require.NoError(t, err)

	assert.Equal(t,
		`{"id":3,"firstName":"Nick","lastName":"Schmitt","age":28,"createdAt":"2024-05-06T06:08:09Z","updatedAt":"2024-05-06T06:08:09Z"}`,
		line)
	assert.NotContains(t, line, "\n")
}

func TestConsole_WriteLinesIsAtomic(t *testing.T) {
	out := &bytes.Buffer{}
	c := newConsole(out)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = c.writeLines("a1", "a2")
		}
	}()
	for i := 0; i < 50; i++ {
		_ = c.writeLines("b1", "b2")
	}
	<-done

	lines := outputLines(out)
	require.Len(t, lines, 200)
	for i := 0; i < len(lines); i += 2 {
		pair := lines[i][:1] + lines[i+1][:1]
		assert.Contains(t, []string{"aa", "bb"}, pair)
	}
}
