package domain

// FeedConfig represents RSS feed configuration
type FeedConfig struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}
