package di

import (
	"log"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/studiousvault/apps/api/echo"
	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
	logsvc "github.com/trezcool/studiousvault/services/logger"
	notifysvc "github.com/trezcool/studiousvault/services/notify"
	inmemdb "github.com/trezcool/studiousvault/storage/database/inmem"
	localstore "github.com/trezcool/studiousvault/storage/local"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newRollbarLogger(conf *core.Config, name string) (*logsvc.RollbarLogger, error) {
	zl, err := logsvc.NewZapLogger(conf, name)
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger, nil
}

func newLogger(conf *core.Config) (*logsvc.RollbarLogger, error) {
	return newRollbarLogger(conf, "api")
}

func asLogger(logger *logsvc.RollbarLogger) core.Logger { return logger }

func newStoreLogger(conf *core.Config) (core.Logger, error) {
	return newRollbarLogger(conf, "store")
}

func newLocalStorage(conf *core.Config, loggerParam StoreLoggerParam) (core.LocalStorage, error) {
	store, err := localstore.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening local storage")
	}
	loggerParam.Logger.Info("local storage opened", map[string]interface{}{"driver": conf.Storage.Driver})
	return store, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServerDeps(usrSvc user.Service, catSvc catalog.Service, notifier core.Notifier) *echoapi.Deps {
	return &echoapi.Deps{
		UserSvc:    usrSvc,
		CatalogSvc: catSvc,
		Notifier:   notifier,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(asLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newLocalStorage))
	must(c.Provide(inmemdb.Open))
	must(c.Provide(inmemdb.NewUserRepository))
	must(c.Provide(inmemdb.NewCatalogRepository))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(notifysvc.NewFlashService))
	must(c.Provide(user.NewSession))
	must(c.Provide(user.NewService))
	must(c.Provide(catalog.NewService))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
