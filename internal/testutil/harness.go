// Package testutil provides shared helpers for exercising the extension
// layer in tests: a log-capturing harness around the full application, and
// countable fake runtimes for cache lifecycle tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugridgo/internal/app"
	"github.com/vk/plugridgo/internal/hcl"
	"github.com/vk/plugridgo/internal/runtime"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunResolveTest provides a standardized harness for integration tests using
// a default background context.
func RunResolveTest(t *testing.T, files map[string]string, modules ...runtime.Module) *HarnessResult {
	t.Helper()
	return RunResolveTestWithContext(context.Background(), t, files, modules...)
}

// RunResolveTestWithContext writes the given manifest files into a temporary
// auto-deploy directory, boots the full application against it, and runs the
// resolution flow. File names are relative paths such as "plugins/x.hcl".
func RunResolveTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...runtime.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	pluginsDir := filepath.Join(tmpDir, "plugins")
	require.NoError(t, os.MkdirAll(pluginsDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	appConfig := &app.Config{
		PluginsPath: pluginsDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		CacheSize:   4,
		JobName:     "test",
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.New(logBuffer, appConfig, hcl.NewLoader(), modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx)
	t.Cleanup(func() {
		_ = testApp.Close(context.Background())
	})

	if os.Getenv("PLUGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
