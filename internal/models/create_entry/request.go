package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type CreateEntryRequest struct {
	Date   string                      `json:"date"`
	Note   string                      `json:"note"`
	Images []accountmodels.ImageUpload `json:"images,omitempty"`
}
