package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type UpdateEntryRequest struct {
	EntryID       string                      `json:"entryId"`
	Date          string                      `json:"date"`
	Note          string                      `json:"note"`
	KeepImageURLs []string                    `json:"keepImageUrls,omitempty"`
	Images        []accountmodels.ImageUpload `json:"images,omitempty"`
}
