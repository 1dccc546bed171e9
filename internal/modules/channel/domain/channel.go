package domain

// Channel is a content source owning zero or more videos. Name is the unique
// key; Category is free text and empty until set.
type Channel struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Summary counts a channel's videos by status.
type Summary struct {
	Channel    Channel `json:"channel"`
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	Downloaded int     `json:"downloaded"`
}
