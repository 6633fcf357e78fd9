package models

type LikeEntryRequest struct {
	OwnerUID string `json:"ownerUid"`
	EntryID  string `json:"entryId"`
}

type LikeEntryResponse struct {
	Liked bool `json:"liked"`
}
