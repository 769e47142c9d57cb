package domain

import "github.com/yungbote/autumn-backend/internal/domain/tracking"

type User = tracking.User
type Context = tracking.Context
type Tag = tracking.Tag
type Project = tracking.Project
type ProjectTag = tracking.ProjectTag
type SubProject = tracking.SubProject
type Session = tracking.Session
type SessionSubProject = tracking.SessionSubProject
type Commitment = tracking.Commitment
type PeriodKind = tracking.PeriodKind

// Models lists every persisted tracking model in migration order.
func Models() []any {
	return []any{
		&User{},
		&Context{},
		&Tag{},
		&Project{},
		&ProjectTag{},
		&SubProject{},
		&Session{},
		&SessionSubProject{},
		&Commitment{},
	}
}
