package models

import (
	"github.com/tsunagari/backend/internal/social"
)

type SearchUsersResponse struct {
	Results []social.SearchResult `json:"results"`
}
