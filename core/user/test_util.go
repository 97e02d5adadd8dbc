package user

import (
	"context"

	"github.com/trezcool/smartseats/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose emails are sent synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	initTokenGen(conf)
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			conf:    conf,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
