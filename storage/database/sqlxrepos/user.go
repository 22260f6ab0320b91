package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Petersomond1/ikoota-sub000/core/user"
)

type userRow struct {
	ID              int         `db:"id"`
	ConverseID      null.String `db:"converse_id"`
	Name            string      `db:"name"`
	Username        null.String `db:"username"`
	Email           null.String `db:"email"`
	Role            string      `db:"role"`
	MembershipStage string      `db:"membership_stage"`
	MemberStatus    string      `db:"member_status"`
	IsActive        bool        `db:"is_active"`
	PasswordHash    []byte      `db:"password_hash"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
	LastLogin       null.Time   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:              r.ID,
		ConverseID:      r.ConverseID.String,
		Name:            r.Name,
		Username:        r.Username.String,
		Email:           r.Email.String,
		Role:            r.Role,
		MembershipStage: r.MembershipStage,
		MemberStatus:    r.MemberStatus,
		IsActive:        r.IsActive,
		PasswordHash:    r.PasswordHash,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		LastLogin:       r.LastLogin.Time,
	}
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:              usr.ID,
		ConverseID:      null.NewString(usr.ConverseID, usr.ConverseID != ""),
		Name:            usr.Name,
		Username:        null.NewString(usr.Username, usr.Username != ""),
		Email:           null.NewString(usr.Email, usr.Email != ""),
		Role:            usr.Role,
		MembershipStage: usr.MembershipStage,
		MemberStatus:    usr.MemberStatus,
		IsActive:        usr.IsActive,
		PasswordHash:    usr.PasswordHash,
		CreatedAt:       usr.CreatedAt,
		UpdatedAt:       usr.UpdatedAt,
		LastLogin:       null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM users WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT username, email FROM users WHERE (username = ? OR email = ?) AND id NOT IN (?)`, username, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = repo.db.Rebind(q)
		args = inArgs
	}

	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	for _, row := range rows {
		if username != "" && row.Username.String == username {
			return user.ErrUsernameExists
		}
		if email != "" && row.Email.String == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	row := newUserRow(usr)
	query := `
		INSERT INTO users (converse_id, name, username, email, role, membership_stage, member_status,
		                   is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:converse_id, :name, :username, :email, :role, :membership_stage, :member_status,
		        :is_active, :password_hash, :created_at, :updated_at, :last_login)
		RETURNING id`
	stmt, err := repo.db.PrepareNamed(query)
	if err != nil {
		return user.User{}, errors.Wrap(err, "preparing user insert")
	}
	defer func() { _ = stmt.Close() }()

	if err = stmt.Get(&row.ID, row); err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	usr.ID = row.ID
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) GetUserByID(id int) (user.User, error) {
	return repo.get(`SELECT * FROM users WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.get(`SELECT * FROM users WHERE username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.get(`SELECT * FROM users WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.get(`SELECT * FROM users WHERE username = $1 OR email = $1`, username)
}

func (repo *userRepository) get(query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.Search != "" {
		p := "%" + filter.Search + "%"
		conds = append(conds, `(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)`)
		args = append(args, p, p, p)
	}
	if filter.Role != "" {
		conds = append(conds, `role = ?`)
		args = append(args, filter.Role)
	}
	if filter.Stage != "" {
		conds = append(conds, `membership_stage = ?`)
		args = append(args, filter.Stage)
	}
	if filter.Status != "" {
		conds = append(conds, `member_status = ?`)
		args = append(args, filter.Status)
	}
	if filter.IsActive != nil {
		conds = append(conds, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, `created_at >= ?`)
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, `created_at <= ?`)
		args = append(args, filter.CreatedTo)
	}

	query := `SELECT * FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id`
	query = repo.db.Rebind(query)

	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
	}

	if usr.Name == "" {
		usr.Name = orig.Name
	}
	if usr.Username == "" {
		usr.Username = orig.Username
	}
	if usr.Email == "" {
		usr.Email = orig.Email
	}
	if usr.Role == "" {
		usr.Role = orig.Role
	}
	if usr.ConverseID == "" {
		usr.ConverseID = orig.ConverseID
	}
	if usr.MembershipStage == "" {
		usr.MembershipStage = orig.MembershipStage
	}
	if usr.MemberStatus == "" {
		usr.MemberStatus = orig.MemberStatus
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	if usr.LastLogin.IsZero() {
		usr.LastLogin = orig.LastLogin
	}
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = time.Now().UTC()
	}
	usr.CreatedAt = orig.CreatedAt
	if isActive != nil {
		usr.IsActive = *isActive
	} else {
		usr.IsActive = orig.IsActive
	}

	row := newUserRow(usr)
	query := `
		UPDATE users
		SET converse_id      = :converse_id,
		    name             = :name,
		    username         = :username,
		    email            = :email,
		    role             = :role,
		    membership_stage = :membership_stage,
		    member_status    = :member_status,
		    is_active        = :is_active,
		    password_hash    = :password_hash,
		    updated_at       = :updated_at,
		    last_login       = :last_login
		WHERE id = :id`
	if _, err = repo.db.NamedExec(query, row); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users
}
