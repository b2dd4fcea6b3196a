package favorite

import "time"

type Favorite struct {
	ID         int64     `json:"id"`
	MovieAPIID int64     `json:"movie_api_id"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Input is the client-supplied part of a favorite. The owner always comes from
// the authenticated subject.
type Input struct {
	MovieAPIID int64  `json:"movie_api_id"`
	Title      string `json:"title"`
}
