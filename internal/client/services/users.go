package services

import (
	"context"

	"github.com/avoronov/filevault/internal/client/api"
	"github.com/avoronov/filevault/internal/client/models"
	"github.com/avoronov/filevault/internal/logging"
)

// UserService fetches the admin roster: a read-only projection, re-fetched
// per view and never mutated locally. The server enforces the admin
// requirement; the CLI additionally gates the command on the local role.
type UserService struct {
	api api.Client
	log logging.Logger
}

func NewUserService(apiClient api.Client, log logging.Logger) *UserService {
	return &UserService{api: apiClient, log: log.With("component", "users")}
}

func (s *UserService) List(ctx context.Context) ([]models.UserRecord, error) {
	return s.api.ListUsers(ctx)
}
