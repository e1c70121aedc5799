package usecase

import (
	"errors"

	"mealdrop-service/internal/pkg/jwt"

	"github.com/google/uuid"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is carried in the access token. Identity lives in an external auth
// service; this service only checks the claim.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func NewRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, nil
	}
	return "", ErrUnknownRole
}

// TokenValidator provides token validation for middleware
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, Role, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (uuid.UUID, Role, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, "", err
	}

	role, err := NewRole(claims.Role)
	if err != nil {
		return uuid.Nil, "", err
	}

	return claims.CustomerID, role, nil
}
