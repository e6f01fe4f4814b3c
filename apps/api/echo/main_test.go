package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/jobtrack/apps/api/echo"
	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/user"
	"github.com/trezcool/jobtrack/testutil"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func setup(t *testing.T, configure ...func(conf *core.Config)) (*testutil.Env, *echoapi.Server) {
	t.Helper()
	env := testutil.NewEnv(t)
	for _, fn := range configure {
		fn(env.Conf)
	}

	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           env.Conf,
		Logger:         env.Logger,
		Validate:       env.Validate,
		Translator:     env.Translator,
		UserSvc:        env.Users,
		ApplicationSvc: env.Applications,
		InterviewSvc:   env.Interviews,
		CallSvc:        env.Calls,
		CalendarSvc:    env.Calendar,
		DashboardSvc:   env.Dashboard,
		ActivitySvc:    env.Activity,
	})
	return env, srv
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name      string
	method    string
	path      string
	body      []byte
	token     string
	wantCode  int
	wantData  []byte // not compared when nil
	wantTotal string // X-Total-Count, not compared when empty
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantTotal != "" {
		if got := rec.Header().Get("X-Total-Count"); got != tt.wantTotal {
			t.Errorf("failed! X-Total-Count = %v; want %v", got, tt.wantTotal)
		}
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, srv http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// do sends a single request and decodes the JSON response into dest when given.
func do(t *testing.T, srv http.Handler, method, path, token string, body []byte, dest interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(method, path, token, body)
	srv.ServeHTTP(rec, req)
	if dest != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
	}
	return rec
}
