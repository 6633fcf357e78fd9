package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type FeedResponse struct {
	Entries            []accountmodels.FeedEntry `json:"entries"`
	UnavailableAuthors []string                  `json:"unavailableAuthors,omitempty"`
}
