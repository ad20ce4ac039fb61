// Package gradestore reconciles freshly scraped grade hierarchies against
// sqlite state and keeps the notification subscription registry.
package gradestore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/oralet86/au-notlar/services/gradestore/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/gradestore")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type ExamEntry struct {
	Name       string
	Percentage string
	Date       string
}

type LectureResult struct {
	Name  string
	Exams []ExamEntry
}

// Change records a single exam row that was inserted or replaced during an
// upsert. It is up to the caller to decide whether a change warrants a
// notification.
type Change struct {
	DepartmentID int64
	LectureID    int64
	LectureName  string
	ExamName     string
}

// Upsert reconciles one account's scrape result against the store.
// Departments and lectures are get-or-create by name; an exam row is left
// alone when an exact (lecture, name, percentage, date) match exists,
// otherwise any previous row for (lecture, name) is dropped and the fresh
// values are inserted. The whole reconciliation commits as one transaction.
func (s Store) Upsert(ctx context.Context, accountLabel string, lectures []LectureResult) ([]Change, error) {
	ctx, span := tracer.Start(ctx, "Upsert")
	defer span.End()
	span.SetAttributes(attribute.String("account", accountLabel))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	departmentId, err := s.getOrCreateDepartment(ctx, txqry, accountLabel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var changes []Change
	for _, lecture := range lectures {
		lectureId, err := s.getOrCreateLecture(ctx, txqry, departmentId, lecture.Name)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		for _, exam := range lecture.Exams {
			_, err := txqry.GetMatchingExam(ctx, db.GetMatchingExamParams{
				LectureID:  lectureId,
				Name:       exam.Name,
				Percentage: exam.Percentage,
				Date:       exam.Date,
			})
			if err == nil {
				// identical values already stored
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			err = txqry.DeleteExamByName(ctx, db.DeleteExamByNameParams{
				LectureID: lectureId,
				Name:      exam.Name,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			_, err = txqry.CreateExam(ctx, db.CreateExamParams{
				LectureID:  lectureId,
				Name:       exam.Name,
				Percentage: exam.Percentage,
				Date:       exam.Date,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			slog.InfoContext(
				ctx, "new exam results, overwriting old ones",
				"lecture", lecture.Name,
				"exam", exam.Name,
			)
			changes = append(changes, Change{
				DepartmentID: departmentId,
				LectureID:    lectureId,
				LectureName:  lecture.Name,
				ExamName:     exam.Name,
			})
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return changes, nil
}

func (s Store) getOrCreateDepartment(ctx context.Context, qry *db.Queries, name string) (int64, error) {
	row, err := qry.GetDepartmentByName(ctx, name)
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	slog.InfoContext(ctx, "department not seen before, creating", "name", name)
	return qry.CreateDepartment(ctx, name)
}

func (s Store) getOrCreateLecture(ctx context.Context, qry *db.Queries, departmentId int64, name string) (int64, error) {
	row, err := qry.GetLectureByName(ctx, db.GetLectureByNameParams{
		DepartmentID: departmentId,
		Name:         name,
	})
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	slog.InfoContext(ctx, "lecture not seen before, creating", "name", name)
	return qry.CreateLecture(ctx, db.CreateLectureParams{
		DepartmentID: departmentId,
		Name:         name,
	})
}

// Subscribe adds a notification subscription, a no-op when the pair
// already exists.
func (s Store) Subscribe(ctx context.Context, lectureId int64, userId string) error {
	ctx, span := tracer.Start(ctx, "Subscribe")
	defer span.End()

	_, err := s.qry.GetNotification(ctx, db.GetNotificationParams{
		LectureID: lectureId,
		UserID:    userId,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = s.qry.CreateNotification(ctx, db.CreateNotificationParams{
		LectureID: lectureId,
		UserID:    userId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Unsubscribe removes a notification subscription, a no-op when the pair
// does not exist.
func (s Store) Unsubscribe(ctx context.Context, lectureId int64, userId string) error {
	ctx, span := tracer.Start(ctx, "Unsubscribe")
	defer span.End()

	err := s.qry.DeleteNotification(ctx, db.DeleteNotificationParams{
		LectureID: lectureId,
		UserID:    userId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Store) IsSubscribed(ctx context.Context, lectureId int64, userId string) (bool, error) {
	_, err := s.qry.GetNotification(ctx, db.GetNotificationParams{
		LectureID: lectureId,
		UserID:    userId,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s Store) Subscribers(ctx context.Context, lectureId int64) ([]string, error) {
	return s.qry.ListNotificationUsers(ctx, lectureId)
}

func (s Store) UserSubscriptions(ctx context.Context, userId string) ([]db.Lecture, error) {
	return s.qry.ListUserLectures(ctx, userId)
}

func (s Store) Departments(ctx context.Context) ([]db.Department, error) {
	return s.qry.ListDepartments(ctx)
}

func (s Store) DepartmentName(ctx context.Context, id int64) (string, error) {
	row, err := s.qry.GetDepartment(ctx, id)
	if err != nil {
		return "", err
	}
	return row.Name, nil
}

func (s Store) Lectures(ctx context.Context, departmentId int64) ([]db.Lecture, error) {
	return s.qry.ListLecturesByDepartment(ctx, departmentId)
}

func (s Store) LectureName(ctx context.Context, id int64) (string, error) {
	row, err := s.qry.GetLecture(ctx, id)
	if err != nil {
		return "", err
	}
	return row.Name, nil
}

func (s Store) Exams(ctx context.Context, lectureId int64) ([]db.Exam, error) {
	return s.qry.ListExamsByLecture(ctx, lectureId)
}
