package model

import (
	"time"
)

const (
	VerbCreated = "was created"
	VerbEdited  = "was edited"
	VerbDeleted = "was deleted"
)

const (
	ObjectFolder = "folder"
	ObjectFile   = "file"
	TargetSpace  = "space"
)

// Activity is an append-only stream entry. ObjectName is a snapshot so the
// entry stays readable after the object itself is deleted.
type Activity struct {
	ID         string    `db:"id"`
	ActorID    string    `db:"actor_id"`
	Verb       string    `db:"verb"`
	TargetType string    `db:"target_type"`
	TargetID   string    `db:"target_id"`
	ObjectType string    `db:"object_type"`
	ObjectID   string    `db:"object_id"`
	ObjectName string    `db:"object_name"`
	CreatedAt  time.Time `db:"created_at"`

	// Joined from users
	ActorName string `db:"actor_name"`
}
