//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Status represents where a video is in its lifecycle
// ENUM(pending,downloaded)
type Status string
