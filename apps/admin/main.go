package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
	logsvc "github.com/trezcool/studiousvault/services/logger"
	notifysvc "github.com/trezcool/studiousvault/services/notify"
	inmemdb "github.com/trezcool/studiousvault/storage/database/inmem"
	localstore "github.com/trezcool/studiousvault/storage/local"
)

func main() {
	conf, err := core.NewConfig()
	errAndDie(err)

	zl, err := logsvc.NewZapLogger(conf, "admin")
	errAndDie(err)
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	// set up storage
	store, err := localstore.Open(conf)
	errAndDie(err)
	defer store.Close()

	db, err := inmemdb.Open()
	errAndDie(err)

	// set up services
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)

	notifier := notifysvc.NewFlashService(logger)
	session := user.NewSession(store, conf)

	// start CLI
	cli := commandLine{
		store:      store,
		sessionKey: session.Key(),
		usrSvc:     user.NewService(conf, inmemdb.NewUserRepository(db), session, notifier, logger, validate, translator),
		catSvc:     catalog.NewService(inmemdb.NewCatalogRepository(db), logger, validate),
		notifier:   notifier,
		out:        os.Stdout,
	}
	if err = cli.run(context.Background(), os.Args); err != nil {
		logger.Error("admin command failed", err)
		store.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
