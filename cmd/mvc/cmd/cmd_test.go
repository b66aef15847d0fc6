package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mvc-server/internal/config"
	"mvc-server/internal/protocol"

	_ "mvc-server/internal/demo/mvc/action"
	_ "mvc-server/internal/demo/service"
	_ "mvc-server/internal/demo/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application.properties")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	path := writeConfig(t, "scanPackage=demo\nlog.level=error\n")

	out, err := run(t, "routes", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Regexp(t, `/demo/add\s+DemoAction.Add\s+demoAction\s+a:int,b:int`, out)
	assert.Regexp(t, `/demo/query\s+DemoAction.Query\s+demoAction\s+name:string`, out)
}

func TestBeansCommand(t *testing.T) {
	path := writeConfig(t, "scanPackage=demo\n")

	out, err := run(t, "beans", "--config", path)
	require.NoError(t, err)
	assert.Regexp(t, `visitCounter\s+\*store.VisitCounter\s+service\s+Config=appConfig,Redis=redisClient\(missing\)`, out)
	assert.Regexp(t, `demoAction\s+\*action.DemoAction\s+controller\s+Counter=visitCounter,DemoService=demoService`, out)
}

func TestBeansCommandSelectsByNameOrAlias(t *testing.T) {
	path := writeConfig(t, "scanPackage=demo\n")

	out, err := run(t, "beans", "--config", path, "mvc-server/internal/demo/service.IDemoService", "appConfig")
	require.NoError(t, err)
	assert.Regexp(t, `demoService\s+\*service.DemoService\s+service\s+Visits=visitCounter`, out)
	assert.Regexp(t, `appConfig\s+\*config.AppConfig\s+external`, out)
	assert.NotContains(t, out, "demoAction")

	_, err = run(t, "beans", "--config", path, "nobody")
	require.ErrorIs(t, err, protocol.ErrBeanNotFound)
}

func TestCommandsRequireScanPackage(t *testing.T) {
	path := writeConfig(t, "listenAddr=:0\n")

	_, err := run(t, "routes", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanPackage")
}

func TestCommandsRejectUnknownLogLevel(t *testing.T) {
	path := writeConfig(t, "scanPackage=demo\n")

	_, err := run(t, "routes", "--config", path, "--log-level", "loud")
	assert.Error(t, err)
}

func TestServeStopsWithContext(t *testing.T) {
	cfg := &config.AppConfig{ScanPackage: "demo", ListenAddr: "127.0.0.1:0"}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, serve(ctx, cfg, zaptest.NewLogger(t)))
}

func TestServeFailsOnBadListenAddr(t *testing.T) {
	cfg := &config.AppConfig{ScanPackage: "demo", ListenAddr: "127.0.0.1:-1"}
	require.NoError(t, cfg.Validate())

	assert.Error(t, serve(context.Background(), cfg, zaptest.NewLogger(t)))
}
