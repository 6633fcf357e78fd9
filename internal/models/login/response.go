package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type LoginResponse struct {
	Profile accountmodels.UserProfile `json:"profile"`
}
