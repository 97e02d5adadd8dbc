package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id primitive.ObjectID) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// UpdateUser replaces the stored document for usr.ID.
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUserByID(ctx context.Context, id primitive.ObjectID) error
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, id string) error
		CheckEmailUniqueness(ctx context.Context, email string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	initTokenGen(conf)
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email); err != nil {
		if err == ErrEmailExists {
			return core.NewConflictError(err, "email")
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, core.ErrInvalidID
	}
	return svc.repo.GetUserByID(ctx, oid)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.ErrInvalidID
	}
	if _, err := svc.repo.GetUserByID(ctx, oid); err != nil {
		return err
	}
	return svc.repo.DeleteUserByID(ctx, oid)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, oid)
	if err != nil {
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{usr.Name},
	})
}

func (svc *service) sendPasswordResetMail(usr User) {
	token := makeToken(usr)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name string
			Path string
		}{
			Name: usr.Name,
			Path: fmt.Sprintf("/password-reset/%s/%s", EncodeUID(usr), token),
		},
	})
}
