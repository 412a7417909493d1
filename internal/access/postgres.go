package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore implements Store using PostgreSQL. Decisions run inside
// serializable transactions with the target row locked, so two concurrent
// approvals of the same pending request cannot both succeed.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

// NewPGStore wraps an existing connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Open connects to PostgreSQL with tuned pool defaults.
func Open(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PGStore{db: db}, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) DB() *sql.DB { return s.db }

const requestColumns = `id, resource_type, resource_id, owner_admin_id, requester_admin_id, status, requested_at, decided_at, allowed_until, coalesce(note,'')`

func (s *PGStore) CreateRequest(ctx context.Context, req *AccessRequest) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock any existing pending row so a concurrent create observes it.
	var dummy int
	err = tx.QueryRowContext(ctx, `
		select 1 from access_requests
		where requester_admin_id=$1 and resource_type=$2 and resource_id=$3 and status='pending'
		for update
	`, req.RequesterAdminID, req.ResourceType, req.ResourceID).Scan(&dummy)
	if err == nil {
		return fmt.Errorf("%w: pending request already exists for %s/%d", ErrInvalidInput, req.ResourceType, req.ResourceID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if err := tx.QueryRowContext(ctx, `
		insert into access_requests(resource_type, resource_id, owner_admin_id, requester_admin_id, status, requested_at, note)
		values ($1,$2,$3,$4,$5,$6,nullif($7,''))
		returning id
	`, req.ResourceType, req.ResourceID, req.OwnerAdminID, req.RequesterAdminID, req.Status, req.RequestedAt, req.Note).Scan(&req.ID); err != nil {
		return translateCreateConflict(err, req)
	}
	if err := tx.Commit(); err != nil {
		return translateCreateConflict(err, req)
	}
	return nil
}

// translateCreateConflict maps the losing side of a concurrent create to the
// same duplicate-pending error the lock guard reports. The `for update` lock
// above holds nothing when no pending row exists yet, so two simultaneous
// creates can both pass it; the partial unique index (or a serialization
// failure) then rejects one of the inserts.
func translateCreateConflict(err error, req *AccessRequest) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	// 23505 unique_violation, 40001 serialization_failure.
	if pgErr.Code == "23505" || pgErr.Code == "40001" {
		return fmt.Errorf("%w: pending request already exists for %s/%d", ErrInvalidInput, req.ResourceType, req.ResourceID)
	}
	return err
}

func (s *PGStore) ApproveRequest(ctx context.Context, id int64, ownerAdminID string, decidedAt, allowedUntil time.Time) (AccessRequest, error) {
	return s.decide(ctx, id, ownerAdminID, func(tx *sql.Tx, req *AccessRequest) error {
		if _, err := tx.ExecContext(ctx, `
			update access_requests set status='approved', decided_at=$2, allowed_until=$3 where id=$1
		`, id, decidedAt, allowedUntil); err != nil {
			return err
		}
		req.Status = StatusApproved
		req.DecidedAt = &decidedAt
		req.AllowedUntil = &allowedUntil
		return nil
	})
}

func (s *PGStore) DenyRequest(ctx context.Context, id int64, ownerAdminID string, decidedAt time.Time) (AccessRequest, error) {
	return s.decide(ctx, id, ownerAdminID, func(tx *sql.Tx, req *AccessRequest) error {
		if _, err := tx.ExecContext(ctx, `
			update access_requests set status='denied', decided_at=$2 where id=$1
		`, id, decidedAt); err != nil {
			return err
		}
		req.Status = StatusDenied
		req.DecidedAt = &decidedAt
		return nil
	})
}

// decide locks the request row, runs the shared guards, and applies the
// transition inside one serializable transaction.
func (s *PGStore) decide(ctx context.Context, id int64, ownerAdminID string, apply func(*sql.Tx, *AccessRequest) error) (AccessRequest, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return AccessRequest{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`select `+requestColumns+` from access_requests where id=$1 for update`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AccessRequest{}, fmt.Errorf("%w: access request %d", ErrNotFound, id)
		}
		return AccessRequest{}, err
	}
	if req.OwnerAdminID != ownerAdminID {
		return AccessRequest{}, fmt.Errorf("%w: only the resource owner may decide", ErrForbidden)
	}
	if req.Status != StatusPending {
		return AccessRequest{}, fmt.Errorf("%w: request already %s", ErrInvalidInput, req.Status)
	}

	if err := apply(tx, &req); err != nil {
		return AccessRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return AccessRequest{}, err
	}
	return req, nil
}

func (s *PGStore) Inbox(ctx context.Context, ownerAdminID string) ([]AccessRequest, error) {
	return s.listRequests(ctx,
		`select `+requestColumns+` from access_requests where owner_admin_id=$1 order by requested_at desc, id desc`,
		ownerAdminID)
}

func (s *PGStore) Outbox(ctx context.Context, requesterAdminID string) ([]AccessRequest, error) {
	return s.listRequests(ctx,
		`select `+requestColumns+` from access_requests where requester_admin_id=$1 order by requested_at desc, id desc`,
		requesterAdminID)
}

func (s *PGStore) listRequests(ctx context.Context, query string, arg any) ([]AccessRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []AccessRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, req)
	}
	return res, rows.Err()
}

func (s *PGStore) ActiveGrantExists(ctx context.Context, requesterAdminID string, rt ResourceType, resourceID int64, now time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		select exists(
			select 1 from access_requests
			where requester_admin_id=$1 and resource_type=$2 and resource_id=$3
			  and status='approved' and allowed_until > $4
		)
	`, requesterAdminID, rt, resourceID, now).Scan(&exists)
	return exists, err
}

func (s *PGStore) CreateDelegation(ctx context.Context, d *AdminDelegation) error {
	return s.db.QueryRowContext(ctx, `
		insert into admin_delegations(from_admin_id, to_admin_id, start_date, end_date, status, reason, created_at)
		values ($1,$2,$3,$4,$5,nullif($6,''),$7)
		returning id
	`, d.FromAdminID, d.ToAdminID, d.StartDate, d.EndDate, d.Status, d.Reason, d.CreatedAt).Scan(&d.ID)
}

func (s *PGStore) RevokeDelegation(ctx context.Context, id int64, callerAdminID string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var fromAdminID string
	var status DelegationStatus
	err = tx.QueryRowContext(ctx,
		`select from_admin_id, status from admin_delegations where id=$1 for update`, id).
		Scan(&fromAdminID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: delegation %d", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	if fromAdminID != callerAdminID {
		return fmt.Errorf("%w: only the issuing admin may revoke", ErrForbidden)
	}
	if status != DelegationActive {
		return fmt.Errorf("%w: delegation %d", ErrNotFound, id)
	}

	if _, err := tx.ExecContext(ctx,
		`update admin_delegations set status='revoked' where id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

const delegationColumns = `id, from_admin_id, to_admin_id, start_date, end_date, status, coalesce(reason,''), created_at`

func (s *PGStore) DelegationsFrom(ctx context.Context, fromAdminID string) ([]AdminDelegation, error) {
	return s.listDelegations(ctx,
		`select `+delegationColumns+` from admin_delegations where from_admin_id=$1 order by created_at desc, id desc`,
		fromAdminID)
}

func (s *PGStore) DelegationsTo(ctx context.Context, toAdminID string) ([]AdminDelegation, error) {
	return s.listDelegations(ctx,
		`select `+delegationColumns+` from admin_delegations where to_admin_id=$1 order by created_at desc, id desc`,
		toAdminID)
}

func (s *PGStore) listDelegations(ctx context.Context, query string, arg any) ([]AdminDelegation, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []AdminDelegation
	for rows.Next() {
		var d AdminDelegation
		if err := rows.Scan(&d.ID, &d.FromAdminID, &d.ToAdminID, &d.StartDate, &d.EndDate, &d.Status, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (s *PGStore) DelegatedAdminIDs(ctx context.Context, toAdminID string, day time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct from_admin_id from admin_delegations
		where to_admin_id=$1 and status='active' and start_date <= $2 and end_date >= $2
		order by from_admin_id
	`, toAdminID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var from string
		if err := rows.Scan(&from); err != nil {
			return nil, err
		}
		res = append(res, from)
	}
	return res, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (AccessRequest, error) {
	var (
		req          AccessRequest
		decidedAt    sql.NullTime
		allowedUntil sql.NullTime
	)
	if err := row.Scan(&req.ID, &req.ResourceType, &req.ResourceID, &req.OwnerAdminID,
		&req.RequesterAdminID, &req.Status, &req.RequestedAt, &decidedAt, &allowedUntil, &req.Note); err != nil {
		return AccessRequest{}, err
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		req.DecidedAt = &t
	}
	if allowedUntil.Valid {
		t := allowedUntil.Time
		req.AllowedUntil = &t
	}
	return req, nil
}
