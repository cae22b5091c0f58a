package messages

import "time"

const (
	EventAdded    = "added"
	EventDeleted  = "deleted"
	EventUpdated  = "updated"
	EventArchived = "archived"
	EventRestored = "restored"
	EventCleared  = "cleared"
	EventImported = "imported"
)

// PackageChanged is published after every successful mutation.
type PackageChanged struct {
	Event      string    `json:"event"`
	Collection string    `json:"collection"`
	PackageID  string    `json:"package_id,omitempty"`
	Provider   string    `json:"provider_key,omitempty"`
	At         time.Time `json:"at"`

	ActiveCount   *int `json:"active_count,omitempty"`
	ArchivedCount *int `json:"archived_count,omitempty"`
}
