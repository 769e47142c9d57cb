package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/data/repos/tracking"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type UserRepo = tracking.UserRepo
type ProjectRepo = tracking.ProjectRepo
type SubProjectRepo = tracking.SubProjectRepo
type SessionRepo = tracking.SessionRepo
type SessionSubProjectRepo = tracking.SessionSubProjectRepo
type CommitmentRepo = tracking.CommitmentRepo
type TagRepo = tracking.TagRepo
type ContextRepo = tracking.ContextRepo

type SessionFilter = tracking.SessionFilter
type CompletedStats = tracking.CompletedStats
type TallyFilter = tracking.TallyFilter
type ProjectTally = tracking.ProjectTally
type SubProjectTally = tracking.SubProjectTally

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return tracking.NewUserRepo(db, baseLog)
}
func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return tracking.NewProjectRepo(db, baseLog)
}
func NewSubProjectRepo(db *gorm.DB, baseLog *logger.Logger) SubProjectRepo {
	return tracking.NewSubProjectRepo(db, baseLog)
}
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return tracking.NewSessionRepo(db, baseLog)
}
func NewSessionSubProjectRepo(db *gorm.DB, baseLog *logger.Logger) SessionSubProjectRepo {
	return tracking.NewSessionSubProjectRepo(db, baseLog)
}
func NewCommitmentRepo(db *gorm.DB, baseLog *logger.Logger) CommitmentRepo {
	return tracking.NewCommitmentRepo(db, baseLog)
}
func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return tracking.NewTagRepo(db, baseLog)
}
func NewContextRepo(db *gorm.DB, baseLog *logger.Logger) ContextRepo {
	return tracking.NewContextRepo(db, baseLog)
}

// Set bundles every tracking repo over one handle.
type Set struct {
	Users              UserRepo
	Projects           ProjectRepo
	SubProjects        SubProjectRepo
	Sessions           SessionRepo
	SessionSubProjects SessionSubProjectRepo
	Commitments        CommitmentRepo
	Tags               TagRepo
	Contexts           ContextRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Users:              NewUserRepo(db, baseLog),
		Projects:           NewProjectRepo(db, baseLog),
		SubProjects:        NewSubProjectRepo(db, baseLog),
		Sessions:           NewSessionRepo(db, baseLog),
		SessionSubProjects: NewSessionSubProjectRepo(db, baseLog),
		Commitments:        NewCommitmentRepo(db, baseLog),
		Tags:               NewTagRepo(db, baseLog),
		Contexts:           NewContextRepo(db, baseLog),
	}
}
