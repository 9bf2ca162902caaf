package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dtroode/recipebox-server/internal/aggregate"
	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
)

// Credentials are the username and password sent on register and login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Auth struct {
	accountStore model.AccountStore
	hasher       model.PasswordHasher
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(
	accountStore model.AccountStore,
	hasher model.PasswordHasher,
	tokenManager model.TokenManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		accountStore: accountStore,
		hasher:       hasher,
		tokenService: NewTokenService(tokenManager, logger),
		logger:       logger,
	}
}

// Register creates an account with no pages.
func (a *Auth) Register(ctx context.Context, creds Credentials) (model.Account, error) {
	creds.Username = strings.TrimSpace(creds.Username)

	a.logger.Debug("Auth service: starting user registration",
		"username", creds.Username)

	if err := aggregate.Validate(creds); err != nil {
		return model.Account{}, err
	}

	_, err := a.accountStore.GetByUsername(ctx, creds.Username)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"username", creds.Username)
		return model.Account{}, model.ErrUsernameTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by username",
			"username", creds.Username,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	hash, err := a.hasher.Hash(creds.Password)
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return model.Account{}, verr
	}
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"username", creds.Username,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	// the store still rejects a duplicate that raced past the lookup
	account, err := a.accountStore.Create(ctx, model.Account{
		Username:     creds.Username,
		PasswordHash: hash,
		Pages:        []model.Page{},
	})
	if err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return model.Account{}, err
		}
		a.logger.Error("Auth service: failed to create user",
			"username", creds.Username,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registration completed successfully",
		"username", account.Username,
		"user_id", account.ID)

	return account, nil
}

// Login checks the credentials and issues an access token.
func (a *Auth) Login(ctx context.Context, creds Credentials) (string, model.Account, error) {
	creds.Username = strings.TrimSpace(creds.Username)

	a.logger.Debug("Auth service: starting user login",
		"username", creds.Username)

	if err := aggregate.Validate(creds); err != nil {
		return "", model.Account{}, err
	}

	account, err := a.accountStore.GetByUsername(ctx, creds.Username)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: login for unknown user",
			"username", creds.Username)
		return "", model.Account{}, model.ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by username",
			"username", creds.Username,
			"error", err.Error())
		return "", model.Account{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if err := a.hasher.Compare(account.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			a.logger.Info("Auth service: wrong password",
				"username", creds.Username)
			return "", model.Account{}, err
		}
		return "", model.Account{}, fmt.Errorf("failed to compare password: %w", err)
	}

	token, err := a.tokenService.Issue(ctx, account.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"user_id", account.ID,
			"error", err.Error())
		return "", model.Account{}, err
	}

	a.logger.Info("Auth service: user login completed successfully",
		"user_id", account.ID)

	return token, account, nil
}
