package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/infrastructure/crm"
	"github.com/erp/posbridge/internal/infrastructure/pos"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Run(ctx context.Context) (*catalogsync.RunSummary, error) {
	args := m.Called(ctx)
	summary, _ := args.Get(0).(*catalogsync.RunSummary)
	return summary, args.Error(1)
}

type mockPOS struct{ mock.Mock }

func (m *mockPOS) GetWebhook(ctx context.Context) (*pos.Webhook, error) {
	args := m.Called(ctx)
	hook, _ := args.Get(0).(*pos.Webhook)
	return hook, args.Error(1)
}

func (m *mockPOS) RegisterWebhook(ctx context.Context, target string) (*pos.Webhook, error) {
	args := m.Called(ctx, target)
	hook, _ := args.Get(0).(*pos.Webhook)
	return hook, args.Error(1)
}

func (m *mockPOS) DeleteWebhook(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockPOS) ListGoods(ctx context.Context) ([]catalogsync.Good, error) {
	args := m.Called(ctx)
	goods, _ := args.Get(0).([]catalogsync.Good)
	return goods, args.Error(1)
}

type stubReference struct {
	methods, statuses, sources []crm.ReferenceItem
	err                        error
}

func (s *stubReference) ListPaymentMethods(context.Context) ([]crm.ReferenceItem, error) {
	return s.methods, s.err
}

func (s *stubReference) ListOrderStatuses(context.Context) ([]crm.ReferenceItem, error) {
	return s.statuses, s.err
}

func (s *stubReference) ListOrderSources(context.Context) ([]crm.ReferenceItem, error) {
	return s.sources, s.err
}

func envFactory(env *Env) EnvFactory {
	return func(context.Context) (*Env, error) { return env, nil }
}

func execute(t *testing.T, factory EnvFactory, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// ---------------------------------------------------------------------------
// Root
// ---------------------------------------------------------------------------

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(envFactory(&Env{}))
	require.NotNil(t, cmd)
	assert.Equal(t, "posbridgectl", cmd.Use)

	for _, path := range [][]string{
		{"sync", "run"},
		{"webhook", "get"},
		{"webhook", "register"},
		{"webhook", "delete"},
		{"crm", "reference"},
		{"pos", "goods"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, envFactory(&Env{}), "--format", "yaml", "webhook", "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSetupFailure(t *testing.T) {
	factory := func(context.Context) (*Env, error) { return nil, errors.New("crm.base_url missing") }

	_, err := execute(t, factory, "pos", "goods")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "crm.base_url missing")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	wrapped := errors.Join(errors.New("ctx"), &ExitError{Code: ExitCommandError, Message: "bad"})
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

// ---------------------------------------------------------------------------
// sync run
// ---------------------------------------------------------------------------

func testSummary() *catalogsync.RunSummary {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := catalogsync.NewRunSummary(started)
	s.Units = 3
	s.Created = 1
	s.Updated = 1
	s.Errors = append(s.Errors, catalogsync.UnitError{
		Unit: "offer:12", Code: "validation", Stage: "create", Message: "name too long",
	})
	s.FinishedAt = started.Add(1500 * time.Millisecond)
	return s
}

func TestSyncRun_Text(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything).Return(testSummary(), nil)

	out, err := execute(t, envFactory(&Env{Runner: runner}), "sync", "run")
	require.NoError(t, err)

	assert.Contains(t, out, "units: 3  created: 1  updated: 1  skipped: 0  errors: 1")
	assert.Contains(t, out, "duration: 1.5s")
	assert.Contains(t, out, "offer:12")
	assert.Contains(t, out, "name too long")
	runner.AssertExpectations(t)
}

func TestSyncRun_JSON(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything).Return(testSummary(), nil)

	out, err := execute(t, envFactory(&Env{Runner: runner}), "--format", "json", "sync", "run")
	require.NoError(t, err)

	var got catalogsync.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Units)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "offer:12", got.Errors[0].Unit)
}

func TestSyncRun_AbortedPrintsPartialSummary(t *testing.T) {
	summary := testSummary()
	summary.Error = "crm: list products: 503"
	runner := new(mockRunner)
	runner.On("Run", mock.Anything).Return(summary, errors.New("crm: list products: 503"))

	out, err := execute(t, envFactory(&Env{Runner: runner}), "sync", "run")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "aborted: crm: list products: 503")
}

// ---------------------------------------------------------------------------
// webhook
// ---------------------------------------------------------------------------

func TestWebhookGet(t *testing.T) {
	t.Run("registered", func(t *testing.T) {
		m := new(mockPOS)
		m.On("GetWebhook", mock.Anything).Return(&pos.Webhook{URL: "https://bridge.example.com/api/v1/webhooks/pos"}, nil)

		out, err := execute(t, envFactory(&Env{Webhooks: m}), "webhook", "get")
		require.NoError(t, err)
		assert.Contains(t, out, "url: https://bridge.example.com/api/v1/webhooks/pos")
	})

	t.Run("none", func(t *testing.T) {
		m := new(mockPOS)
		m.On("GetWebhook", mock.Anything).Return(nil, nil)

		out, err := execute(t, envFactory(&Env{Webhooks: m}), "webhook", "get")
		require.NoError(t, err)
		assert.Contains(t, out, "no webhook registered")
	})
}

func TestWebhookRegister(t *testing.T) {
	target := "https://bridge.example.com/api/v1/webhooks/pos"
	m := new(mockPOS)
	m.On("RegisterWebhook", mock.Anything, target).Return(&pos.Webhook{URL: target, Secret: "whsec"}, nil)

	out, err := execute(t, envFactory(&Env{Webhooks: m}), "webhook", "register", target)
	require.NoError(t, err)
	assert.Contains(t, out, "registered: "+target)
	assert.Contains(t, out, "secret: whsec")
	m.AssertExpectations(t)
}

func TestWebhookRegister_InvalidURL(t *testing.T) {
	m := new(mockPOS)

	_, err := execute(t, envFactory(&Env{Webhooks: m}), "webhook", "register", "not a url")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	m.AssertNotCalled(t, "RegisterWebhook", mock.Anything, mock.Anything)
}

func TestWebhookDelete(t *testing.T) {
	m := new(mockPOS)
	m.On("DeleteWebhook", mock.Anything).Return(nil)

	out, err := execute(t, envFactory(&Env{Webhooks: m}), "webhook", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "webhook deleted")
}

func TestWebhookDelete_Error(t *testing.T) {
	m := new(mockPOS)
	m.On("DeleteWebhook", mock.Anything).Return(errors.New("pos: unauthorized"))

	_, err := execute(t, envFactory(&Env{Webhooks: m}), "webhook", "delete")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

// ---------------------------------------------------------------------------
// lookups
// ---------------------------------------------------------------------------

func TestCRMReference(t *testing.T) {
	ref := &stubReference{
		methods:  []crm.ReferenceItem{{ID: 3, Name: "Cash", Alias: "cash"}},
		statuses: []crm.ReferenceItem{{ID: 7, Name: "Completed"}},
		sources:  []crm.ReferenceItem{{ID: 11, Name: "POS"}},
	}

	out, err := execute(t, envFactory(&Env{Reference: ref}), "crm", "reference")
	require.NoError(t, err)
	assert.Contains(t, out, "payment methods:")
	assert.Contains(t, out, "Cash")
	assert.Contains(t, out, "order statuses:")
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, "order sources:")

	out, err = execute(t, envFactory(&Env{Reference: ref}), "--format", "json", "crm", "reference")
	require.NoError(t, err)
	var sections []referenceSection
	require.NoError(t, json.Unmarshal([]byte(out), &sections))
	require.Len(t, sections, 3)
	assert.Equal(t, int64(11), sections[2].Items[0].ID)
}

func TestCRMReference_Error(t *testing.T) {
	ref := &stubReference{err: errors.New("crm: unauthorized")}

	_, err := execute(t, envFactory(&Env{Reference: ref}), "crm", "reference")
	require.Error(t, err)
}

func TestPOSGoods(t *testing.T) {
	m := new(mockPOS)
	m.On("ListGoods", mock.Anything).Return([]catalogsync.Good{
		{ID: "g1", Code: "SKU-1", Name: "Coffee", Price: 25000, ExternalRef: "product:1"},
		{ID: "g2", Code: "offer-12", Name: "Tea — Green", Price: 19900, ExternalRef: "offer:12"},
	}, nil)

	out, err := execute(t, envFactory(&Env{Goods: m}), "pos", "goods")
	require.NoError(t, err)
	assert.Contains(t, out, "SKU-1")
	assert.Contains(t, out, "offer:12")
	assert.Contains(t, out, "2 goods")
}
