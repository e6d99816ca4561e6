package models

import "time"

// Comment is a free-text note attached to a task. Comments are stored
// independently; tasks do not hold back-references.
type Comment struct {
	ID         string    `json:"id" bson:"_id"`
	DaoID      string    `json:"daoId" bson:"daoId"`
	TaskID     int       `json:"taskId" bson:"taskId"`
	AuthorID   string    `json:"authorId" bson:"authorId"`
	AuthorName string    `json:"authorName" bson:"authorName"`
	Content    string    `json:"content" bson:"content"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
