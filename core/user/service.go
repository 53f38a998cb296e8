package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRegNumber   = errors.New("invalid registration number format")

	errCorruptSession = errors.New("corrupt session record")

	// user-facing notices
	invalidCredentialsText = "Invalid credentials. Please try again."
	userExistsText         = "User already exists"
	signupText             = "Account created successfully!"
	logoutText             = "Logged out successfully"

	newID = uuid.NewString // mockable
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUserExists if usr conflicts with a roster entry:
		// same ID, same registration number (students) or same name (admins).
		CheckUniqueness(ctx context.Context, usr User) error
		// CreateUser appends usr to the roster. Conflicts are checked atomically with the append.
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetStudentByRegNumber(ctx context.Context, regNumber string) (User, error)
		GetAdminByName(ctx context.Context, name string) (User, error)
	}

	// Service is the Auth Service: login, signup & logout against the roster, backed by the Session.
	Service interface {
		// Login and Signup wait for the simulated latency before resolving; a cancelled ctx aborts them
		// without any state change.
		Login(ctx context.Context, cred Credentials) (Result, error)
		Signup(ctx context.Context, nu NewUser) (Result, error)
		Logout(ctx context.Context) (Result, error)
		// Restore reads the persisted identity once at startup and ends the initial loading state.
		Restore(ctx context.Context) error
		Current() (User, bool)
		Loading() bool
		Guard() (GuardDecision, User)
		Pattern() RegNumberPattern
		GetByID(ctx context.Context, id string) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
	}

	service struct {
		repo            Repository
		session         *Session
		notifier        core.Notifier
		logger          core.Logger
		validate        *validator.Validate
		translator      ut.Translator
		pattern         RegNumberPattern
		latency         time.Duration
		verifyPasswords bool
	}
)

var _ Service = (*service)(nil)

func NewService(
	conf *core.Config,
	repo Repository,
	session *Session,
	notifier core.Notifier,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
) Service {
	return &service{
		repo:            repo,
		session:         session,
		notifier:        notifier,
		logger:          logger,
		validate:        validate,
		translator:      translator,
		pattern:         NewRegNumberPattern(conf.Auth.RegNumberDigits),
		latency:         conf.Auth.Latency,
		verifyPasswords: conf.Auth.VerifyPasswords,
	}
}

func (svc *service) Current() (User, bool)        { return svc.session.Current() }
func (svc *service) Loading() bool                { return svc.session.Loading() }
func (svc *service) Guard() (GuardDecision, User) { return svc.session.Guard() }
func (svc *service) Pattern() RegNumberPattern    { return svc.pattern }

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.PasswordHash = nil
	return usr, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

// wait simulates the network round trip.
func (svc *service) wait(ctx context.Context) error {
	if svc.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(svc.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail surfaces err to the user and returns it.
func (svc *service) fail(err error) (Result, error) {
	svc.notifier.Notify(core.ErrorNotice(svc.noticeText(err)))
	return Result{}, err
}

func (svc *service) noticeText(err error) string {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		return joinFieldErrors(core.TranslateFieldErrors(origErr, svc.translator))
	case *core.ValidationError:
		if errors.Is(origErr, ErrInvalidRegNumber) {
			return svc.pattern.FormatText()
		}
		if len(origErr.Fields) > 0 {
			return joinFieldErrors(origErr.Fields)
		}
		return origErr.Error()
	}
	switch errors.Cause(err) {
	case ErrInvalidCredentials:
		return invalidCredentialsText
	case ErrUserExists:
		return userExistsText
	}
	return err.Error()
}

func joinFieldErrors(flds []core.FieldError) string {
	msgs := make([]string, 0, len(flds))
	for _, f := range flds {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Error))
	}
	return strings.Join(msgs, "; ")
}

func (svc *service) Login(ctx context.Context, cred Credentials) (Result, error) {
	done := svc.session.begin()
	defer done()

	if err := svc.wait(ctx); err != nil {
		return Result{}, err
	}
	if err := cred.Validate(svc.validate); err != nil {
		return svc.fail(err)
	}

	var usr User
	var err error
	if svc.pattern.Match(cred.Identifier) {
		usr, err = svc.repo.GetStudentByRegNumber(ctx, cred.Identifier)
	} else {
		usr, err = svc.repo.GetAdminByName(ctx, cred.Identifier)
	}
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return svc.fail(ErrInvalidCredentials)
		}
		return Result{}, errors.Wrap(err, "finding user by identifier")
	}
	if svc.verifyPasswords {
		if err = usr.CheckPassword(cred.Password); err != nil {
			return svc.fail(ErrInvalidCredentials)
		}
	}

	if err = svc.session.set(ctx, usr); err != nil {
		return Result{}, err
	}
	msg := fmt.Sprintf("Welcome back, %s!", usr.Name)
	svc.notifier.Notify(core.SuccessNotice(msg))
	svc.logger.Info("user logged in", map[string]interface{}{"id": usr.ID, "role": usr.Role})
	usr.PasswordHash = nil
	return Result{User: &usr, Redirect: DashboardPath, Message: msg}, nil
}

func (svc *service) Signup(ctx context.Context, nu NewUser) (Result, error) {
	done := svc.session.begin()
	defer done()

	if err := svc.wait(ctx); err != nil {
		return Result{}, err
	}
	if err := nu.Validate(svc.validate); err != nil {
		return svc.fail(err)
	}

	usr := User{
		ID:        newID(),
		Name:      nu.Name,
		Role:      nu.Role,
		RegNumber: nu.RegNumber,
	}

	// duplicates are reported before malformed registration numbers
	if err := svc.repo.CheckUniqueness(ctx, usr); err != nil {
		if errors.Cause(err) == ErrUserExists {
			return svc.fail(ErrUserExists)
		}
		return Result{}, errors.Wrap(err, "checking uniqueness")
	}
	if usr.IsStudent() && !svc.pattern.Match(usr.RegNumber) {
		return svc.fail(core.NewValidationError(
			ErrInvalidRegNumber,
			core.FieldError{Field: "reg_number", Error: svc.pattern.FormatText()},
		))
	}

	if err := usr.SetPassword(nu.Password); err != nil {
		return Result{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrUserExists { // lost a race with a concurrent signup
			return svc.fail(ErrUserExists)
		}
		return Result{}, errors.Wrap(err, "creating user")
	}

	if err = svc.session.set(ctx, usr); err != nil {
		return Result{}, err
	}
	svc.notifier.Notify(core.SuccessNotice(signupText))
	svc.logger.Info("user signed up", map[string]interface{}{"id": usr.ID, "role": usr.Role})
	usr.PasswordHash = nil
	return Result{User: &usr, Redirect: DashboardPath, Message: signupText}, nil
}

func (svc *service) Logout(ctx context.Context) (Result, error) {
	if err := svc.session.clear(ctx); err != nil {
		return Result{}, err
	}
	svc.notifier.Notify(core.SuccessNotice(logoutText))
	return Result{Redirect: EntryPath, Message: logoutText}, nil
}

func (svc *service) Restore(ctx context.Context) error {
	var restored *User
	gen := svc.session.generation()
	defer func() { svc.session.resolve(restored, gen) }()

	usr, ok, err := svc.session.persisted(ctx)
	if err != nil {
		if errors.Cause(err) == errCorruptSession {
			svc.logger.Warn("dropping corrupt session record", err)
			return svc.session.drop(ctx, gen)
		}
		return err
	}
	if !ok {
		return nil
	}

	// the roster does not survive restarts: re-register the identity unless it conflicts
	found, err := svc.repo.GetUserByID(ctx, usr.ID)
	switch {
	case err == nil:
		if !found.SameIdentity(usr) {
			svc.logger.Warn("dropping session record conflicting with roster", map[string]interface{}{"id": usr.ID})
			return svc.session.drop(ctx, gen)
		}
		restored = &found
	case errors.Cause(err) == ErrNotFound:
		created, err := svc.repo.CreateUser(ctx, usr)
		if err != nil {
			if errors.Cause(err) == ErrUserExists {
				svc.logger.Warn("dropping session record conflicting with roster", map[string]interface{}{"id": usr.ID})
				return svc.session.drop(ctx, gen)
			}
			return errors.Wrap(err, "re-registering session user")
		}
		restored = &created
	default:
		return errors.Wrap(err, "finding session user")
	}

	restored.PasswordHash = nil
	return nil
}
