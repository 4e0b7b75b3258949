package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"campus/internal/certificate/models"
	"campus/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists certificates in the certificates table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const certificateColumns = `
	id, certificate_id, type, student_id, course_id, exam_id, path_id,
	student_name, student_email, course_name, instructor_name, exam_title, path_name,
	grade, score, attendance_percentage, path_completion_percentage,
	status, is_verified, hash, issue_date, completion_date, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, c models.Certificate) error {
	query := `INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.CertificateID, string(c.Type), c.StudentID,
		nullString(c.CourseID), nullString(c.ExamID), nullString(c.PathID),
		c.StudentName, c.StudentEmail, c.CourseName, c.InstructorName,
		nullString(c.ExamTitle), nullString(c.PathName),
		c.Grade, c.Score, c.AttendancePercentage, c.PathCompletionPercentage,
		string(c.Status), c.IsVerified, c.Hash,
		c.IssueDate, c.CompletionDate, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("save certificate: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.Certificate, error) {
	return s.findOne(ctx, "id", id)
}

func (s *PostgresStore) FindByCertificateID(ctx context.Context, certificateID string) (models.Certificate, error) {
	return s.findOne(ctx, "certificate_id", certificateID)
}

func (s *PostgresStore) findOne(ctx context.Context, column, value string) (models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE ` + column + ` = $1`
	c, err := scanCertificate(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Certificate{}, sentinel.ErrNotFound
		}
		return models.Certificate{}, fmt.Errorf("find certificate by %s: %w", column, err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]models.Certificate, error) {
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		args = append(args, value)
		where = append(where, column+" = $"+strconv.Itoa(len(args)))
	}
	if filter.Type != "" {
		add("type", string(filter.Type))
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if filter.StudentID != "" {
		add("student_id", filter.StudentID)
	}

	query := `SELECT ` + certificateColumns + ` FROM certificates`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []models.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, c models.Certificate) error {
	query := `
		UPDATE certificates SET
			student_name = $2, student_email = $3, course_name = $4, instructor_name = $5,
			exam_title = $6, path_name = $7, grade = $8, score = $9,
			status = $10, is_verified = $11, completion_date = $12, updated_at = $13
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		c.ID, c.StudentName, c.StudentEmail, c.CourseName, c.InstructorName,
		nullString(c.ExamTitle), nullString(c.PathName), c.Grade, c.Score,
		string(c.Status), c.IsVerified, c.CompletionDate, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) Exists(ctx context.Context, studentID string, certType models.CertificateType, itemID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM certificates
			WHERE student_id = $1 AND type = $2
			  AND (course_id = $3 OR exam_id = $3 OR path_id = $3)
		)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, studentID, string(certType), itemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check certificate existence: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (models.Certificate, error) {
	var (
		c                                        models.Certificate
		certType, status                         string
		courseID, examID, pathID                 sql.NullString
		examTitle, pathName                      sql.NullString
		attendancePercentage, pathCompletionPerc sql.NullFloat64
	)
	err := row.Scan(
		&c.ID, &c.CertificateID, &certType, &c.StudentID, &courseID, &examID, &pathID,
		&c.StudentName, &c.StudentEmail, &c.CourseName, &c.InstructorName, &examTitle, &pathName,
		&c.Grade, &c.Score, &attendancePercentage, &pathCompletionPerc,
		&status, &c.IsVerified, &c.Hash, &c.IssueDate, &c.CompletionDate, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return models.Certificate{}, err
	}
	c.Type = models.CertificateType(certType)
	c.Status = models.Status(status)
	c.CourseID, c.ExamID, c.PathID = courseID.String, examID.String, pathID.String
	c.ExamTitle, c.PathName = examTitle.String, pathName.String
	if attendancePercentage.Valid {
		c.AttendancePercentage = &attendancePercentage.Float64
	}
	if pathCompletionPerc.Valid {
		c.PathCompletionPercentage = &pathCompletionPerc.Float64
	}
	c.IssueDate = c.IssueDate.UTC()
	c.CompletionDate = c.CompletionDate.UTC()
	return c, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Store = (*PostgresStore)(nil)
