package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type UpdateEntryResponse struct {
	Entry accountmodels.Entry `json:"entry"`
}
