package postgres_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ricemeet-backend/internal/domain"
)

var (
	meetupCols = []string{"id", "host_id", "title", "status", "start_at", "latitude", "longitude",
		"check_in_radius_meters", "duration_minutes", "max_participants", "current_participants",
		"deposit_points", "ended_at", "settled_at", "created_on", "updated_on"}
	participantCols = []string{"id", "meetup_id", "user_id", "status", "joined_at", "attended", "attended_at",
		"attendance_method", "attendance_distance_meters"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func meetupRow(id int32, status domain.MeetupStatus, current, max int32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(meetupCols).AddRow(id, int32(1), "Lunch", string(status), now, 37.5665, 126.978,
		int32(300), int32(180), max, current, int32(1000), nil, nil, now, now)
}

func participantRow(meetupID, userID int32, status domain.ParticipantStatus) *sqlmock.Rows {
	return sqlmock.NewRows(participantCols).AddRow(int32(10), meetupID, userID, string(status), time.Now(), false, nil, nil, nil)
}
