package model

import "time"

// SpotLock is an advisory lock serializing booking creation per spot. The
// unique _id insert loses on duplicate key when another request holds the
// spot; a TTL index on expires_at reaps locks orphaned by crashed requests.
type SpotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
