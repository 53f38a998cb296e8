package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	. "github.com/trezcool/studiousvault/apps/api/echo"
	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
	logsvc "github.com/trezcool/studiousvault/services/logger"
	notifysvc "github.com/trezcool/studiousvault/services/notify"
	inmemdb "github.com/trezcool/studiousvault/storage/database/inmem"
	localstore "github.com/trezcool/studiousvault/storage/local"
)

var (
	johnDoe   = user.User{ID: "1", Name: "John Doe", Role: user.RoleStudent, RegNumber: "RA2211028010236"}
	adminUser = user.User{ID: "2", Name: "Admin User", Role: user.RoleAdmin}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errSessionEnded = httpErr{Error: "session ended"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type app struct {
	*Server
	userSvc    user.Service
	catalogSvc catalog.Service
	notifier   core.Notifier
}

func testConf() *core.Config {
	return &core.Config{
		AppName:   "Studious Vault",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
			DisableReqLogs:     true,
		},
		Auth: core.AuthConfig{
			RegNumberDigits: 13, // seeded registration numbers
			SessionKey:      "studiousVaultUser",
		},
	}
}

// setup returns a server over a freshly seeded roster & catalog.
// The session is restored unless restore is false, in which case it stays loading.
func setup(t *testing.T, restore ...bool) *app {
	t.Helper()
	return setupConf(t, testConf(), restore...)
}

func setupConf(t *testing.T, conf *core.Config, restore ...bool) *app {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)

	notifier := notifysvc.NewFlashService(logger)
	session := user.NewSession(localstore.NewMemory(), conf)
	usrSvc := user.NewServiceMock(conf, inmemdb.NewUserRepository(db), session, notifier, logger, validate, translator)
	catSvc := catalog.NewService(inmemdb.NewCatalogRepository(db), logger, validate)

	if len(restore) == 0 || restore[0] {
		require.NoError(t, usrSvc.Restore(context.Background()))
	}

	srv, err := NewServer(conf, logger, validate, translator, &Deps{
		UserSvc:    usrSvc,
		CatalogSvc: catSvc,
		Notifier:   notifier,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return &app{Server: srv, userSvc: usrSvc, catalogSvc: catSvc, notifier: notifier}
}

// login makes usr the current session identity and returns a token for it.
func (a *app) login(t *testing.T, usr user.User) string {
	t.Helper()
	identifier := usr.Name
	if usr.IsStudent() {
		identifier = usr.RegNumber
	}
	_, err := a.userSvc.Login(context.Background(), user.Credentials{Identifier: identifier, Password: "x"})
	require.NoError(t, err)
	a.notifier.Drain()
	return a.getToken(t, usr)
}

func (a *app) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := a.GenerateToken(a.GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func newFormRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String(), "data")
	}
}

func runHTTPTests(t *testing.T, a *app, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
