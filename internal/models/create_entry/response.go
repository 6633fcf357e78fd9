package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type CreateEntryResponse struct {
	Entry accountmodels.Entry `json:"entry"`
}
