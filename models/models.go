package models

// Permission is a member's capability level within a store.
// Owner and write may create and edit notes and manage membership;
// read may only view.
type Permission string

const (
	PermissionOwner Permission = "owner"
	PermissionWrite Permission = "write"
	PermissionRead  Permission = "read"
)

// User is the document stored under the username key.
type User struct {
	Password string            `json:"password"`
	Stores   map[string]string `json:"stores"` // shortcut -> store id
}

type Member struct {
	Permissions Permission `json:"permissions"`
}

type Note struct {
	ID   string         `json:"id"`
	Note map[string]any `json:"note"`
}

// Store is the document stored under the generated store id. Items are keyed
// by note id.
type Store struct {
	View    string            `json:"view"`
	Items   map[string]Note   `json:"items"`
	Members map[string]Member `json:"members"`
}
