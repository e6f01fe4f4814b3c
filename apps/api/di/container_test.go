package di

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/jobtrack/apps/api/echo"
	"github.com/trezcool/jobtrack/core"
	emailsvc "github.com/trezcool/jobtrack/services/email"
)

func TestNew_memoryStorage(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_STORAGE", "memory")
	t.Setenv("TEST_BUILD", "ci")

	c := New(make(chan os.Signal, 1))
	err := c.Invoke(func(conf *core.Config, s Storage, srv *echoapi.Server) {
		assert.True(t, conf.TestMode)
		assert.Equal(t, "memory", conf.Storage)
		assert.Nil(t, s.DB)
		assert.NoError(t, s.Close())

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "ok", "build": "ci"}`, rec.Body.String())
	})
	require.NoError(t, err)
}

func TestNewEmailService(t *testing.T) {
	conf := core.NewTestConfig()
	logger := newLogger(conf)

	conf.Debug = false
	conf.SendgridApiKey = ""
	assert.IsType(t, &emailsvc.ConsoleService{}, newEmailService(conf, logger))

	conf.SendgridApiKey = "SG.key"
	assert.IsType(t, &emailsvc.SendgridService{}, newEmailService(conf, logger))

	conf.Debug = true
	assert.IsType(t, &emailsvc.ConsoleService{}, newEmailService(conf, logger))
}
