package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Petersomond1/ikoota-sub000/core/member"
)

type applicationRow struct {
	ID          int       `db:"id"`
	UserID      int       `db:"user_id"`
	Answers     []byte    `db:"answers"`
	Status      string    `db:"status"`
	AdminNotes  string    `db:"admin_notes"`
	ReviewedBy  null.Int  `db:"reviewed_by"`
	SubmittedAt time.Time `db:"submitted_at"`
	ReviewedAt  null.Time `db:"reviewed_at"`
}

func (r applicationRow) toApplication() (member.Application, error) {
	var answers map[string]string
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &answers); err != nil {
			return member.Application{}, errors.Wrap(err, "decoding application answers")
		}
	}
	return member.Application{
		ID:          r.ID,
		UserID:      r.UserID,
		Answers:     answers,
		Status:      r.Status,
		AdminNotes:  r.AdminNotes,
		ReviewedBy:  r.ReviewedBy.Int,
		SubmittedAt: r.SubmittedAt,
		ReviewedAt:  r.ReviewedAt.Time,
	}, nil
}

func newApplicationRow(app member.Application) (applicationRow, error) {
	answers, err := json.Marshal(app.Answers)
	if err != nil {
		return applicationRow{}, errors.Wrap(err, "encoding application answers")
	}
	return applicationRow{
		ID:          app.ID,
		UserID:      app.UserID,
		Answers:     answers,
		Status:      app.Status,
		AdminNotes:  app.AdminNotes,
		ReviewedBy:  null.NewInt(app.ReviewedBy, app.ReviewedBy != 0),
		SubmittedAt: app.SubmittedAt,
		ReviewedAt:  null.NewTime(app.ReviewedAt, !app.ReviewedAt.IsZero()),
	}, nil
}

type memberRepository struct {
	db *sqlx.DB
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *sqlx.DB) member.Repository {
	return &memberRepository{db: db}
}

func (repo *memberRepository) CreateApplication(app member.Application) (member.Application, error) {
	row, err := newApplicationRow(app)
	if err != nil {
		return member.Application{}, err
	}
	query := `
		INSERT INTO membership_applications (user_id, answers, status, admin_notes, reviewed_by, submitted_at, reviewed_at)
		VALUES (:user_id, :answers, :status, :admin_notes, :reviewed_by, :submitted_at, :reviewed_at)
		RETURNING id`
	stmt, err := repo.db.PrepareNamed(query)
	if err != nil {
		return member.Application{}, errors.Wrap(err, "preparing application insert")
	}
	defer func() { _ = stmt.Close() }()

	if err = stmt.Get(&row.ID, row); err != nil {
		return member.Application{}, errors.Wrap(err, "creating application")
	}
	app.ID = row.ID
	return app, nil
}

func (repo *memberRepository) GetApplicationByID(id int) (member.Application, error) {
	return repo.get(`SELECT * FROM membership_applications WHERE id = $1`, id)
}

func (repo *memberRepository) GetApplicationByUserID(userID int) (member.Application, error) {
	return repo.get(`SELECT * FROM membership_applications WHERE user_id = $1`, userID)
}

func (repo *memberRepository) get(query string, args ...interface{}) (member.Application, error) {
	var row applicationRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return member.Application{}, member.ErrNotFound
		}
		return member.Application{}, errors.Wrap(err, "getting application")
	}
	return row.toApplication()
}

func (repo *memberRepository) QueryApplicationsByStatus(status string) ([]member.Application, error) {
	var rows []applicationRow
	query := `SELECT * FROM membership_applications WHERE status = $1 ORDER BY submitted_at`
	if err := repo.db.Select(&rows, query, status); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}

	apps := make([]member.Application, 0, len(rows))
	for _, row := range rows {
		app, err := row.toApplication()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (repo *memberRepository) UpdateApplication(app member.Application) (member.Application, error) {
	row, err := newApplicationRow(app)
	if err != nil {
		return member.Application{}, err
	}
	query := `
		UPDATE membership_applications
		SET answers     = :answers,
		    status      = :status,
		    admin_notes = :admin_notes,
		    reviewed_by = :reviewed_by,
		    reviewed_at = :reviewed_at
		WHERE id = :id`
	if _, err = repo.db.NamedExec(query, row); err != nil {
		return member.Application{}, errors.Wrap(err, "updating application")
	}
	return app, nil
}
