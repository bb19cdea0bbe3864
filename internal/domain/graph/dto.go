package graph

// FollowResponse reports which branch a follow took.
type FollowResponse struct {
	Outcome FollowOutcome `json:"outcome"`
}

// PurgeRequest confirms a bulk purge. The uid must repeat the one in the
// URL so a stray admin call cannot wipe the wrong account.
type PurgeRequest struct {
	UID string `json:"uid" validate:"required,uid"`
}

// PutProfileRequest is the registration collaborator's payload for
// writing a profile node.
type PutProfileRequest struct {
	Username    string `json:"username" validate:"required,min=1,max=64"`
	DisplayName string `json:"displayName" validate:"omitempty,max=128"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}
