package echoapi_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/jobtrack/apps/api/echo"
	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/user"
	"github.com/trezcool/jobtrack/testutil"
)

func Test_userApi_login(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, user.RoleUser, true)
	testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog@test.cd", testutil.Password, user.RoleUser, false)

	body := func(email, pwd string) []byte {
		return marshalObj(t, echoapi.LoginRequest{Email: email, Password: pwd})
	}
	invalidCreds := marshalObj(t, httpErr{Error: "invalid credentials"})

	tests := []httpTest{
		{
			name: "blank", body: body("", ""), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{name: "unknown email", body: body("who@test.cd", testutil.Password), wantCode: http.StatusBadRequest, wantData: invalidCreds},
		{name: "wrong password", body: body("ada@test.cd", "nope"), wantCode: http.StatusBadRequest, wantData: invalidCreds},
		{
			name: "inactive", body: body("ndog@test.cd", testutil.Password), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/login"
	}
	runHTTPTests(t, srv, tests)

	t.Run("success (email is case insensitive)", func(t *testing.T) {
		var resp echoapi.LoginResponse
		rec := do(t, srv, http.MethodPost, "/v1/users/login", "", body(" ADA@test.cd ", testutil.Password), &resp)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, ada.ID, resp.User.ID)
		assert.False(t, resp.User.LastLogin.IsZero())

		// the token works
		rec = do(t, srv, http.MethodGet, "/v1/users/me", resp.Token, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_register(t *testing.T) {
	env, srv := setup(t)
	testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, user.RoleUser, true)

	admin := user.RoleAdmin
	newUser := func(name, email string) user.NewUser {
		return user.NewUser{Name: name, Email: email, Password: testutil.Password, PasswordConfirm: testutil.Password}
	}

	tests := []httpTest{
		{
			name: "email taken", body: marshalObj(t, newUser("Ada Bis", "ADA@test.cd")), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "name required", body: marshalObj(t, newUser("", "new@test.cd")), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"name": "this field is required"}),
		},
		{name: "malformed body", body: []byte(`{"name": 42}`), wantCode: http.StatusBadRequest},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/register"
	}
	runHTTPTests(t, srv, tests)

	t.Run("success", func(t *testing.T) {
		data := newUser("Grace", "grace@test.cd")
		data.Role = &admin // ignored

		var resp echoapi.LoginResponse
		rec := do(t, srv, http.MethodPost, "/v1/users/register", "", marshalObj(t, data), &resp)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "Grace", resp.User.Name)
		assert.Equal(t, user.RoleUser, resp.User.Role)
		assert.True(t, resp.User.IsActive)

		sent := env.Mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "welcome", sent[0].TemplateName)
		assert.Equal(t, "grace@test.cd", sent[0].To[0].Address)
	})
}

func Test_userApi_auth(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", "", user.RoleUser, true)
	naughty := testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog@test.cd", "", user.RoleUser, false)
	ghost := testutil.CreateUser(t, env.UserRepo, "Ghost", "ghost@test.cd", "", user.RoleUser, true)
	ghostToken := getToken(t, env.Conf, ghost)
	require.NoError(t, env.Users.Delete(context.Background(), ghost.ID))

	otherConf := *env.Conf
	otherConf.SecretKey = "another-secret-key-another-secret-key"

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "Garbage token", token: "garbage", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"})},
		{
			name: "Wrong signature", token: getToken(t, &otherConf, ada), wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{name: "Deleted user", token: ghostToken, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "user not authenticated"})},
		{name: "Inactive user", token: getToken(t, env.Conf, naughty), wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"})},
		{name: "Me", token: getToken(t, env.Conf, ada), wantData: marshalObj(t, ada)},
	}
	for i := range tests {
		tests[i].path = "/v1/users/me"
	}
	runHTTPTests(t, srv, tests)
}

func Test_userApi_refreshToken(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", "", user.RoleUser, true)

	now := time.Now()
	unrefreshable := echoapi.NewClaims(env.Conf, ada, now.Add(-2*env.Conf.Server.JWTRefreshExpirationDelta).Unix())
	unrefreshableToken, err := echoapi.GenerateToken(env.Conf, unrefreshable)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "refresh has expired"})},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/token-refresh"
	}
	runHTTPTests(t, srv, tests)

	t.Run("Token refreshed", func(t *testing.T) {
		orig := echoapi.NewClaims(env.Conf, ada, now.Add(-time.Hour).Unix())
		token, err := echoapi.GenerateToken(env.Conf, orig)
		require.NoError(t, err)

		var resp echoapi.TokenResponse
		rec := do(t, srv, http.MethodPost, "/v1/users/token-refresh", token, nil, &resp)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		claims := new(echoapi.Claims)
		_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(env.Conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, ada.ID, claims.Subject)
		assert.Equal(t, orig.OrigIssuedAt, claims.OrigIssuedAt)
		assert.Equal(t, user.RoleUser, claims.Role)
	})
}

func Test_userApi_query(t *testing.T) {
	env, srv := setup(t)

	path := func(params ...string) string {
		v := make(url.Values)
		for i := 0; i+1 < len(params); i += 2 {
			v.Add(params[i], params[i+1])
		}
		return "/v1/users?" + v.Encode()
	}

	now := time.Now().UTC().Truncate(time.Second)
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)

	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", "", user.RoleUser, true, t1)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "bob@test.cd", "", user.RoleUser, true)
	cal := testutil.CreateUser(t, env.UserRepo, "Cal", "cal@call.cd", "", user.RoleCaller, true, t2)
	admin := testutil.CreateUser(t, env.UserRepo, "Zed Admin", "admin@test.cd", "", user.RoleAdmin, true)
	naughty := testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog@test.cd", "", user.RoleUser, false)

	adminToken := getToken(t, env.Conf, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "Admin required", path: "/v1/users", token: getToken(t, env.Conf, cal), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{
			name: "Get all (by name)", path: "/v1/users", token: adminToken, wantTotal: "5",
			wantData: marshalList(t, ada, bob, cal, naughty, admin),
		},
		// filtering
		{name: "search (unknown)", path: path("search", "lol"), token: adminToken, wantData: marshalList(t), wantTotal: "0"},
		{name: "search=CALL", path: path("search", "CALL"), token: adminToken, wantData: marshalList(t, cal)},
		{name: "role=0", path: path("role", "0"), token: adminToken, wantData: marshalList(t, ada, bob, naughty)},
		{name: "role=1&role=2", path: path("role", "1", "role", "2"), token: adminToken, wantData: marshalList(t, cal, admin)},
		{name: "is_active=false", path: path("is_active", "false"), token: adminToken, wantData: marshalList(t, naughty)},
		{
			name: "is_active (invalid)", path: path("is_active", "maybe"), token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"is_active": "invalid value"}),
		},
		{name: "created_from", path: path("created_from", t1.Format(time.RFC3339)), token: adminToken, wantData: marshalList(t, ada, cal)},
		{
			name: "created_from - created_to", path: path("created_from", t1.Format(time.RFC3339), "created_to", t2.Add(-time.Minute).Format(time.RFC3339)),
			token: adminToken, wantData: marshalList(t, ada),
		},
		// ordering & paging
		{name: "order by -name", path: path("ordering", "-name"), token: adminToken, wantData: marshalList(t, admin, naughty, cal, bob, ada)},
		{name: "order by role,-email", path: path("ordering", "role,-email"), token: adminToken, wantData: marshalList(t, naughty, bob, ada, cal, admin)},
		{
			name: "limit & offset", path: path("limit", "2", "offset", "1"), token: adminToken,
			wantData: marshalList(t, bob, cal), wantTotal: "5",
		},
		{
			name: "limit (invalid)", path: path("limit", "many"), token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"limit": "invalid value"}),
		},
	}
	runHTTPTests(t, srv, tests)
}

func Test_userApi_queryByCreationDay(t *testing.T) {
	env, srv := setup(t)

	first := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", "", user.RoleUser, true, time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC))
	second := testutil.CreateUser(t, env.UserRepo, "Bob", "bob@test.cd", "", user.RoleUser, true, time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC))
	admin := testutil.CreateUser(t, env.UserRepo, "Zed Admin", "admin@test.cd", "", user.RoleAdmin, true)
	adminToken := getToken(t, env.Conf, admin)

	tests := []httpTest{
		{name: "created_to a day", path: "/v1/users?created_to=2024-03-01", token: adminToken, wantData: marshalList(t, first), wantTotal: "1"},
		{
			name: "created_from - created_to the same day", path: "/v1/users?created_from=2024-03-02&created_to=2024-03-02",
			token: adminToken, wantData: marshalList(t, second), wantTotal: "1",
		},
		{
			name: "created_to a timestamp", path: "/v1/users?created_to=2024-03-01T14:00:00Z",
			token: adminToken, wantData: marshalList(t), wantTotal: "0",
		},
		{
			name: "created_to (invalid)", path: "/v1/users?created_to=yesterday", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"created_to": "invalid value"}),
		},
	}
	runHTTPTests(t, srv, tests)
}

func Test_userApi_detail(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", "", user.RoleUser, true)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "bob@test.cd", "", user.RoleUser, true)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	adaToken := getToken(t, env.Conf, ada)
	adminToken := getToken(t, env.Conf, admin)

	tests := []httpTest{
		{name: "self", path: "/v1/users/" + ada.ID, token: adaToken, wantData: marshalObj(t, ada)},
		{name: "someone else", path: "/v1/users/" + bob.ID, token: adaToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "admin", path: "/v1/users/" + bob.ID, token: adminToken, wantData: marshalObj(t, bob)},
		{name: "unknown", path: "/v1/users/nope", token: adminToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "roles", path: "/v1/users/roles", token: adminToken, wantData: marshalObj(t, user.Roles)},
		{
			name: "self cannot change role", method: http.MethodPut, path: "/v1/users/" + ada.ID, token: adaToken,
			body: []byte(`{"role": 2}`), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "self cannot activate", method: http.MethodPut, path: "/v1/users/" + ada.ID, token: adaToken,
			body: []byte(`{"is_active": true}`), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "user cannot delete", method: http.MethodDelete, path: "/v1/users/" + ada.ID, token: adaToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "admin cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
	}
	runHTTPTests(t, srv, tests)

	t.Run("self updates name & phone", func(t *testing.T) {
		var got user.User
		rec := do(t, srv, http.MethodPut, "/v1/users/"+ada.ID, adaToken, []byte(`{"name": " Ada L. ", "phone": "+243 81 000 0000"}`), &got)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Ada L.", got.Name)
		assert.Equal(t, "+243 81 000 0000", got.Phone)
		assert.Equal(t, "ada@test.cd", got.Email)
	})

	t.Run("admin promotes & deactivates", func(t *testing.T) {
		var got user.User
		rec := do(t, srv, http.MethodPut, "/v1/users/"+bob.ID, adminToken, []byte(`{"role": 1, "is_active": false}`), &got)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, user.RoleCaller, got.Role)
		assert.False(t, got.IsActive)
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := do(t, srv, http.MethodDelete, "/v1/users/"+bob.ID, adminToken, nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := env.Users.GetByID(context.Background(), bob.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func Test_userApi_create(t *testing.T) {
	env, srv := setup(t)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	var got user.User
	rec := do(t, srv, http.MethodPost, "/v1/users", getToken(t, env.Conf, admin), marshalObj(t, map[string]interface{}{
		"name":             "Cal",
		"email":            "cal@test.cd",
		"role":             user.RoleCaller,
		"password":         testutil.Password,
		"password_confirm": testutil.Password,
	}), &got)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, user.RoleCaller, got.Role)
	assert.Empty(t, env.Mail.SentMessages()) // no welcome mail for admin-created accounts
}

func Test_userApi_destroyMultiple(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", "", user.RoleUser, true)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "bob@test.cd", "", user.RoleUser, true)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	adminToken := getToken(t, env.Conf, admin)

	tests := []httpTest{
		{name: "nothing to delete", path: "/v1/users", token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "cannot delete self", path: "/v1/users?id=" + ada.ID + "&id=" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{name: "deleted", path: "/v1/users?id=" + ada.ID + "&id=" + bob.ID, token: adminToken, wantCode: http.StatusNoContent},
	}
	for i := range tests {
		tests[i].method = http.MethodDelete
	}
	runHTTPTests(t, srv, tests)

	users, total, err := env.Users.Query(context.Background(), nil, nil, core.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, admin.ID, users[0].ID)
}

func Test_userApi_passwordReset(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, user.RoleUser, true)
	const newPassword = "N3w-Sup3r$ecret"

	success := marshalObj(t, echoapi.SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	runHTTPTests(t, srv, []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{"email": "nope"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email (same answer)", method: http.MethodPost, path: "/v1/users/password-reset",
			body: []byte(`{"email": "who@test.cd"}`), wantData: success,
		},
	})
	assert.Empty(t, env.Mail.SentMessages())

	rec := do(t, srv, http.MethodPost, "/v1/users/password-reset", "", []byte(`{"email": "Ada@test.cd"}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].TemplateName)

	confirm := func(uid, token string) []byte {
		return marshalObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: newPassword, PasswordConfirm: newPassword})
	}
	runHTTPTests(t, srv, []httpTest{
		{
			name: "bad uid", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm("bad", "bad"),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"uid": "invalid value"}),
		},
		{
			name: "bad token", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm(user.EncodeUID(ada), "bad"),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"token": "invalid value"}),
		},
		{
			name: "reset", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body:     confirm(user.EncodeUID(ada), env.Users.MakeResetToken(ada)),
			wantData: marshalObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	})

	rec = do(t, srv, http.MethodPost, "/v1/users/login", "", marshalObj(t, echoapi.LoginRequest{Email: ada.Email, Password: newPassword}), nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_userApi_rateLimit(t *testing.T) {
	_, srv := setup(t, func(conf *core.Config) { conf.Server.RateLimit = 1 })
	body := marshalObj(t, echoapi.LoginRequest{Email: "who@test.cd", Password: "nope"})

	rec := do(t, srv, http.MethodPost, "/v1/users/login", "", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/v1/users/login", "", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "too many requests"))
}
