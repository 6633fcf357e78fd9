package models

type SendFriendRequestRequest struct {
	TargetUID string `json:"targetUid"`
}

type RespondFriendRequestRequest struct {
	RequestorUID string `json:"requestorUid"`
	Accept       bool   `json:"accept"`
}
