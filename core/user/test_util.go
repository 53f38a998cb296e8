package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studiousvault/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service without simulated latency.
func NewServiceMock(
	conf *core.Config,
	repo Repository,
	session *Session,
	notifier core.Notifier,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
) Service {
	svc := NewService(conf, repo, session, notifier, logger, validate, translator).(*service)
	svc.latency = 0
	return &serviceMock{service: *svc}
}
