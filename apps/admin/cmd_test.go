package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
	logsvc "github.com/trezcool/studiousvault/services/logger"
	notifysvc "github.com/trezcool/studiousvault/services/notify"
	inmemdb "github.com/trezcool/studiousvault/storage/database/inmem"
	localstore "github.com/trezcool/studiousvault/storage/local"
)

// setup returns a CLI over a fresh roster; store may be shared to simulate successive runs.
func setup(t *testing.T, store core.LocalStorage) (*commandLine, *bytes.Buffer) {
	t.Helper()
	conf := &core.Config{
		Env: "TEST",
		Auth: core.AuthConfig{
			RegNumberDigits: 13,
			SessionKey:      "studiousVaultUser",
		},
	}

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
	session := user.NewSession(store, conf)

	var out bytes.Buffer
	return &commandLine{
		store:      store,
		sessionKey: session.Key(),
		usrSvc:     user.NewServiceMock(conf, inmemdb.NewUserRepository(db), session, notifier, logger, validate, translator),
		catSvc:     catalog.NewService(inmemdb.NewCatalogRepository(db), logger, validate),
		notifier:   notifier,
		out:        &out,
	}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runCLITests(t *testing.T, store core.LocalStorage, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, store) // a new process per command
			readPasswordFunc = func(fd int) ([]byte, error) {
				return []byte(tt.pwd), nil
			}

			err := cli.run(context.Background(), append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_session(t *testing.T) {
	store := localstore.NewMemory()

	runCLITests(t, store, []cliTest{
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
		{name: "nothing persisted", args: []string{"session", "show"}, wantOut: "no active session"},
		{name: "login without identifier", args: []string{"login"}, pwd: "x", wantErrStr: `required flag(s) "identifier" not set`},
		{name: "login without password", args: []string{"login", "--identifier", "Admin User"}, wantErr: errNoPassword},
		{
			name:    "invalid credentials",
			args:    []string{"login", "--identifier", "Nobody"},
			pwd:     "x",
			wantErr: user.ErrInvalidCredentials,
			wantOut: "Invalid credentials. Please try again.",
		},
		{name: "login", args: []string{"login", "--identifier", "RA2211028010236"}, pwd: "x", wantOut: "Welcome back, John Doe!"},
		{name: "persisted", args: []string{"session", "show"}, wantOut: "John Doe (student) RA2211028010236 id=1"},
		{name: "clear", args: []string{"session", "clear"}, wantOut: "Logged out successfully"},
		{name: "cleared", args: []string{"session", "show"}, wantOut: "no active session"},
	})
}

func Test_commandLine_subjects(t *testing.T) {
	runCLITests(t, localstore.NewMemory(), []cliTest{
		{name: "list", args: []string{"subjects"}, wantOut: "MATH101"},
		{name: "args", args: []string{"subjects", "lol"}, wantErrStr: "unknown command"},
	})

	cli, out := setup(t, localstore.NewMemory())
	require.NoError(t, cli.run(context.Background(), []string{"admin", "subjects"}))
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	assert.Len(t, lines, 7, "header + 6 subjects")
}

func Test_commandLine_users(t *testing.T) {
	runCLITests(t, localstore.NewMemory(), []cliTest{
		{name: "list", args: []string{"users"}, wantOut: "Admin User"},
		{name: "args", args: []string{"users", "lol"}, wantErrStr: "unknown command"},
	})

	cli, out := setup(t, localstore.NewMemory())
	require.NoError(t, cli.run(context.Background(), []string{"admin", "users"}))
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3, "header + seeded roster")
	assert.Contains(t, string(lines[1]), "RA2211028010236")
}
