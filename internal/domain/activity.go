package domain

import "time"

// Users and groups may follow, unfollow and follow again repeatedly, so the
// ids below are not unique. These rows are an append-only activity log.

type UserActivity struct {
	ID             int64      `db:"id"`
	UserID         string     `db:"user_id"`
	Following      bool       `db:"following"`
	FollowTime     time.Time  `db:"follow_time"`
	UnfollowTime   *time.Time `db:"unfollow_time"`
}

type GroupActivity struct {
	ID        int64      `db:"id"`
	GroupID   string     `db:"group_id"`
	Joining   bool       `db:"joining"`
	JoinTime  time.Time  `db:"join_time"`
	LeaveTime *time.Time `db:"leave_time"`
}
