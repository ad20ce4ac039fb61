package gradestore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/oralet86/au-notlar/lib/telemetry"
	"github.com/oralet86/au-notlar/services/gradestore/db"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (Store, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/gradestore")

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}

	return NewStore(sqlite), cleanup
}

func midterm() []LectureResult {
	return []LectureResult{
		{
			Name: "Algorithms",
			Exams: []ExamEntry{
				{Name: "Midterm", Percentage: "40%", Date: "2024-03-01"},
			},
		},
	}
}

func TestUpsertIdempotence(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "Computer Engineering", midterm())
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "Computer Engineering", midterm())
	require.NoError(t, err)

	departments, err := store.Departments(ctx)
	require.NoError(t, err)
	require.Len(t, departments, 1)
	require.Equal(t, "Computer Engineering", departments[0].Name)

	lectures, err := store.Lectures(ctx, departments[0].ID)
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	require.Equal(t, "Algorithms", lectures[0].Name)
}

func TestExamOverwriteOnChange(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	changes, err := store.Upsert(ctx, "Computer Engineering", midterm())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "Algorithms", changes[0].LectureName)
	require.Equal(t, "Midterm", changes[0].ExamName)

	lectureId := changes[0].LectureID

	exams, err := store.Exams(ctx, lectureId)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	originalId := exams[0].ID

	// identical values must not touch the row
	changes, err = store.Upsert(ctx, "Computer Engineering", midterm())
	require.NoError(t, err)
	require.Empty(t, changes)

	exams, err = store.Exams(ctx, lectureId)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	require.Equal(t, originalId, exams[0].ID)

	// a changed date replaces the row
	changes, err = store.Upsert(ctx, "Computer Engineering", []LectureResult{
		{
			Name: "Algorithms",
			Exams: []ExamEntry{
				{Name: "Midterm", Percentage: "40%", Date: "2024-03-05"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)

	exams, err = store.Exams(ctx, lectureId)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	require.Equal(t, "2024-03-05", exams[0].Date)
	require.NotEqual(t, originalId, exams[0].ID)
}

func TestSubscriptionIdempotence(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	changes, err := store.Upsert(ctx, "Computer Engineering", midterm())
	require.NoError(t, err)
	lectureId := changes[0].LectureID

	require.NoError(t, store.Subscribe(ctx, lectureId, "1234"))
	require.NoError(t, store.Subscribe(ctx, lectureId, "1234"))

	users, err := store.Subscribers(ctx, lectureId)
	require.NoError(t, err)
	require.Equal(t, []string{"1234"}, users)

	subscribed, err := store.IsSubscribed(ctx, lectureId, "1234")
	require.NoError(t, err)
	require.True(t, subscribed)

	lectures, err := store.UserSubscriptions(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	require.Equal(t, "Algorithms", lectures[0].Name)

	// removing a pair that is not subscribed is not an error
	require.NoError(t, store.Unsubscribe(ctx, lectureId, "5678"))

	require.NoError(t, store.Unsubscribe(ctx, lectureId, "1234"))
	subscribed, err = store.IsSubscribed(ctx, lectureId, "1234")
	require.NoError(t, err)
	require.False(t, subscribed)

	users, err = store.Subscribers(ctx, lectureId)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestUpsertPreservesOtherLectures(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "Computer Engineering", []LectureResult{
		{Name: "Algorithms", Exams: []ExamEntry{
			{Name: "Midterm", Percentage: "40%", Date: "2024-03-01"},
			{Name: "Final", Percentage: "60%", Date: "2024-06-01"},
		}},
		{Name: "Physics II", Exams: []ExamEntry{
			{Name: "Letter Grade", Percentage: "100%", Date: "2024-06-10"},
		}},
	})
	require.NoError(t, err)

	// a later scrape touching only one lecture leaves the other intact
	changes, err := store.Upsert(ctx, "Computer Engineering", []LectureResult{
		{Name: "Algorithms", Exams: []ExamEntry{
			{Name: "Midterm", Percentage: "40%", Date: "2024-03-01"},
			{Name: "Final", Percentage: "60%", Date: "2024-06-03"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "Final", changes[0].ExamName)

	departments, err := store.Departments(ctx)
	require.NoError(t, err)
	lectures, err := store.Lectures(ctx, departments[0].ID)
	require.NoError(t, err)
	require.Len(t, lectures, 2)

	for _, lecture := range lectures {
		exams, err := store.Exams(ctx, lecture.ID)
		require.NoError(t, err)
		require.NotEmpty(t, exams)
	}
}
