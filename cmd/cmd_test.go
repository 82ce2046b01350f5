// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/config"
	"github.com/mobilesec-ms/reportgen/internal/observability"
	"github.com/mobilesec-ms/reportgen/internal/reporting"
	"github.com/mobilesec-ms/reportgen/internal/results"
	"github.com/mobilesec-ms/reportgen/internal/server"
	"github.com/mobilesec-ms/reportgen/internal/service"
	"github.com/mobilesec-ms/reportgen/internal/upstream"
)

// -- Mocks --

type MockComponentFactory struct {
	mock.Mock
}

func (m *MockComponentFactory) Create(cfg config.Interface, logger *zap.Logger) (*service.Components, error) {
	args := m.Called(cfg, logger)
	c, _ := args.Get(0).(*service.Components)
	return c, args.Error(1)
}

type snapshotFetcher struct {
	snap *upstream.Snapshot
	err  error
	got  schemas.JobIDs
}

func (f *snapshotFetcher) FetchAll(_ context.Context, jobs schemas.JobIDs) (*upstream.Snapshot, error) {
	f.got = jobs
	return f.snap, f.err
}

type fakeRunner struct {
	cfg config.ServerConfig
	err error
}

func (r *fakeRunner) Start(context.Context) error { return r.err }

// -- Test Helpers --

func resetForTest(t *testing.T) {
	t.Helper()
	cfgFile = ""
	color.NoColor = true
	observability.ResetForTest()
	observability.InitializeLogger(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"})
	t.Cleanup(observability.ResetForTest)
}

func testComponents(t *testing.T, fetcher service.Fetcher) *service.Components {
	builder := results.NewBuilder(config.NewDefaultConfig().Report())
	return &service.Components{
		Generator: service.NewGenerator(fetcher, builder, reporting.Options{}, zaptest.NewLogger(t)),
	}
}

func criticalSnapshot() *upstream.Snapshot {
	return &upstream.Snapshot{
		APK: upstream.APKScan{Filename: "app.apk", Result: map[string]any{"package": "com.example.app"}},
		Secrets: upstream.Found(upstream.FindingsScan{Findings: []map[string]any{
			{"type": "HARDCODED_KEY", "severity": "CRITICAL"},
		}}),
		Crypto: upstream.Found(upstream.FindingsScan{Findings: []map[string]any{
			{"type": "WEAK_HASH_MD5", "severity": "MEDIUM"},
		}}),
	}
}

func executeRoot(t *testing.T, factory service.ComponentFactory, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// -- Test Cases: root & version --

func TestRootCmd_VersionFlag(t *testing.T) {
	resetForTest(t)
	out, err := executeRoot(t, new(MockComponentFactory), "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	resetForTest(t)
	out, err := executeRoot(t, new(MockComponentFactory), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reportgen "+Version)
}

func TestRootCmd_NoArgsPrintsHelp(t *testing.T) {
	resetForTest(t)
	out, err := executeRoot(t, new(MockComponentFactory))
	require.NoError(t, err)
	assert.Contains(t, out, "Aggregates mobile scanner results")
	assert.Contains(t, out, "generate")
	assert.Contains(t, out, "serve")
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.Error(t, err)
}

// -- Test Cases: generate --

func TestGenerateCmd_RequiresAPK(t *testing.T) {
	resetForTest(t)
	factory := new(MockComponentFactory)
	_, err := executeRoot(t, factory, "generate", "--secrets", "S1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"apk"`)
	factory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerateCmd_EndToEnd(t *testing.T) {
	resetForTest(t)
	fetcher := &snapshotFetcher{snap: criticalSnapshot()}
	factory := new(MockComponentFactory)
	factory.On("Create", mock.Anything, mock.Anything).Return(testComponents(t, fetcher), nil).Once()

	out, err := executeRoot(t, factory, "generate", "--apk", "A1", "--secrets", "S1", "--format", "sarif")
	require.NoError(t, err)

	assert.Equal(t, schemas.JobIDs{APKScanner: "A1", SecretHunter: "S1"}, fetcher.got)
	assert.Contains(t, out, `"version": "2.1.0"`)
	assert.Contains(t, out, "Critical:     1")
	factory.AssertExpectations(t)
}

func TestRunGenerate(t *testing.T) {
	cfg := config.NewDefaultConfig()

	t.Run("json to stdout with summary on stderr", func(t *testing.T) {
		color.NoColor = true
		factory := new(MockComponentFactory)
		factory.On("Create", cfg, mock.Anything).Return(testComponents(t, &snapshotFetcher{snap: criticalSnapshot()}), nil)

		var stdout, stderr bytes.Buffer
		err := runGenerate(context.Background(), cfg, zaptest.NewLogger(t), factory,
			generateOptions{jobs: schemas.JobIDs{APKScanner: "A1"}}, &stdout, &stderr)
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
		assert.Equal(t, "com.example.app", doc["summary"].(map[string]any)["package_name"])

		assert.Contains(t, stderr.String(), "Total issues: 2")
		assert.Contains(t, stderr.String(), "[CRITICAL] 1 critical vulnerabilities detected. Immediate action required.")
	})

	t.Run("pdf to file", func(t *testing.T) {
		factory := new(MockComponentFactory)
		factory.On("Create", cfg, mock.Anything).Return(testComponents(t, &snapshotFetcher{snap: criticalSnapshot()}), nil)
		path := filepath.Join(t.TempDir(), "report.pdf")

		var stdout, stderr bytes.Buffer
		err := runGenerate(context.Background(), cfg, zaptest.NewLogger(t), factory,
			generateOptions{jobs: schemas.JobIDs{APKScanner: "A1"}, format: "pdf", outputPath: path}, &stdout, &stderr)
		require.NoError(t, err)
		assert.Empty(t, stdout.String())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	})

	t.Run("fail-on gate", func(t *testing.T) {
		tests := []struct {
			failOn string
			want   error
		}{
			{"", nil},
			{"critical", ErrThresholdExceeded},
			{"Medium", ErrThresholdExceeded},
		}
		for _, tt := range tests {
			factory := new(MockComponentFactory)
			factory.On("Create", cfg, mock.Anything).Return(testComponents(t, &snapshotFetcher{snap: criticalSnapshot()}), nil)
			err := runGenerate(context.Background(), cfg, zaptest.NewLogger(t), factory,
				generateOptions{jobs: schemas.JobIDs{APKScanner: "A1"}, failOn: tt.failOn}, &bytes.Buffer{}, &bytes.Buffer{})
			assert.ErrorIs(t, err, tt.want, "fail-on %q", tt.failOn)
			if tt.want == nil {
				assert.NoError(t, err)
			}
		}
	})

	t.Run("invalid fail-on is rejected before any work", func(t *testing.T) {
		factory := new(MockComponentFactory)
		err := runGenerate(context.Background(), cfg, zaptest.NewLogger(t), factory,
			generateOptions{jobs: schemas.JobIDs{APKScanner: "A1"}, failOn: "severe"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "invalid --fail-on")
		factory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("factory failure", func(t *testing.T) {
		factory := new(MockComponentFactory)
		factory.On("Create", cfg, mock.Anything).Return(nil, errors.New("no apkscanner"))
		err := runGenerate(context.Background(), cfg, zaptest.NewLogger(t), factory,
			generateOptions{jobs: schemas.JobIDs{APKScanner: "A1"}}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "failed to initialize components: no apkscanner")
	})

	t.Run("mandatory upstream failure", func(t *testing.T) {
		mandatory := &upstream.MandatoryUpstreamError{Service: schemas.ServiceAPKScanner, JobID: "A1", Err: errors.New("404")}
		factory := new(MockComponentFactory)
		factory.On("Create", cfg, mock.Anything).Return(testComponents(t, &snapshotFetcher{err: mandatory}), nil)

		var stdout bytes.Buffer
		err := runGenerate(context.Background(), cfg, zaptest.NewLogger(t), factory,
			generateOptions{jobs: schemas.JobIDs{APKScanner: "A1"}}, &stdout, &bytes.Buffer{})
		assert.ErrorAs(t, err, &mandatory)
		assert.Empty(t, stdout.String())
	})
}

func TestAtOrAbove(t *testing.T) {
	s := schemas.Summary{Critical: 0, High: 2, Medium: 3, Low: 4}
	assert.Equal(t, 0, atOrAbove(s, schemas.SeverityCritical))
	assert.Equal(t, 2, atOrAbove(s, schemas.SeverityHigh))
	assert.Equal(t, 5, atOrAbove(s, schemas.SeverityMedium))
	assert.Equal(t, 9, atOrAbove(s, schemas.SeverityLow))
}

// -- Test Cases: serve --

func stubServer(t *testing.T, r *fakeRunner) {
	t.Helper()
	orig := newServer
	newServer = func(cfg config.ServerConfig, _ server.ReportGenerator, _ *zap.Logger) runner {
		r.cfg = cfg
		return r
	}
	t.Cleanup(func() { newServer = orig })
}

func TestServeCmd_FlagOverridesEnv(t *testing.T) {
	resetForTest(t)
	t.Setenv("PORT", "9000")
	r := &fakeRunner{}
	stubServer(t, r)

	factory := new(MockComponentFactory)
	factory.On("Create", mock.Anything, mock.Anything).Return(testComponents(t, &snapshotFetcher{}), nil)

	_, err := executeRoot(t, factory, "serve", "--port", "9100")
	require.NoError(t, err)
	assert.Equal(t, 9100, r.cfg.Port)
	assert.Equal(t, "0.0.0.0", r.cfg.Host)
}

func TestServeCmd_PortFromEnv(t *testing.T) {
	resetForTest(t)
	t.Setenv("PORT", "9000")
	r := &fakeRunner{}
	stubServer(t, r)

	factory := new(MockComponentFactory)
	factory.On("Create", mock.Anything, mock.Anything).Return(testComponents(t, &snapshotFetcher{}), nil)

	_, err := executeRoot(t, factory, "serve")
	require.NoError(t, err)
	assert.Equal(t, 9000, r.cfg.Port)
}

func TestRunServe_Errors(t *testing.T) {
	cfg := config.NewDefaultConfig()

	factory := new(MockComponentFactory)
	factory.On("Create", cfg, mock.Anything).Return(nil, errors.New("boom")).Once()
	err := runServe(context.Background(), cfg, zaptest.NewLogger(t), factory)
	assert.ErrorContains(t, err, "failed to initialize components")

	r := &fakeRunner{err: errors.New("address in use")}
	stubServer(t, r)
	factory.On("Create", cfg, mock.Anything).Return(testComponents(t, &snapshotFetcher{}), nil).Once()
	err = runServe(context.Background(), cfg, zaptest.NewLogger(t), factory)
	assert.ErrorContains(t, err, "address in use")
}
