package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/infra"
)

// PgProfileRepository implements ProfileRepository using pgx.
type PgProfileRepository struct{}

// NewPgProfileRepository creates a new PgProfileRepository.
func NewPgProfileRepository() *PgProfileRepository {
	return &PgProfileRepository{}
}

const profileColumns = `id, email, name, phone, user_type::text, verification_status::text, account_status,
	talent_level::text, bio, city, age, hourly_rate, services, rejection_reason,
	verified_by, verified_at, created_at, updated_at`

func (r *PgProfileRepository) List(ctx context.Context, db DBTX) ([]domain.ProfileRecord, error) {
	rows, err := db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.ProfileRecord
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// FindByID returns a profile by ID, or nil if not found.
func (r *PgProfileRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.ProfileRecord, error) {
	row := db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PgProfileRepository) InsertIfAbsent(ctx context.Context, db DBTX, p *domain.ProfileRecord) (bool, error) {
	var level *string
	if p.TalentLevel != nil {
		s := string(*p.TalentLevel)
		level = &s
	}
	var age *int
	if p.Age > 0 {
		age = &p.Age
	}
	var hourly pgtype.Numeric
	if p.HourlyRate > 0 {
		hourly = infra.RupiahToNumeric(p.HourlyRate)
	}
	services := make([]string, 0, len(p.Services))
	for _, s := range p.Services {
		services = append(services, string(s))
	}

	tag, err := db.Exec(ctx, `
		INSERT INTO profiles
		  (id, email, name, phone, user_type, verification_status, account_status,
		   talent_level, bio, city, age, hourly_rate, services, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::text::user_type, $6::text::verification_status, $7,
		        $8::text::talent_level, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Email, p.Name, p.Phone, string(p.UserType), string(p.VerificationStatus), p.AccountStatus,
		level, p.Bio, p.City, age, hourly, services, p.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert profile: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateVerification is the compare-and-swap on verification_status.
func (r *PgProfileRepository) UpdateVerification(ctx context.Context, db DBTX, upd domain.VerificationUpdate) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE profiles
		SET verification_status = $2::text::verification_status,
		    account_status = $3,
		    rejection_reason = $4,
		    verified_by = $5,
		    verified_at = $6
		WHERE id = $1 AND verification_status = 'pending'`,
		upd.UserID, string(upd.To), upd.AccountStatus, upd.Reason, upd.ReviewedBy, upd.ReviewedAt)
	if err != nil {
		return false, fmt.Errorf("update verification: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanProfile(row pgx.Row) (*domain.ProfileRecord, error) {
	var (
		p        domain.ProfileRecord
		userType string
		status   string
		level    *string
		age      *int
		hourly   pgtype.Numeric
		services []string
	)
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Phone, &userType, &status, &p.AccountStatus,
		&level, &p.Bio, &p.City, &age, &hourly, &services, &p.RejectionReason,
		&p.VerifiedBy, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.UserType = domain.UserType(userType)
	p.VerificationStatus = domain.VerificationStatus(status)
	if level != nil {
		l := domain.TalentLevel(*level)
		p.TalentLevel = &l
	}
	if age != nil {
		p.Age = *age
	}
	if hourly.Valid {
		if p.HourlyRate, err = infra.NumericToRupiah(hourly); err != nil {
			return nil, fmt.Errorf("profile hourly_rate: %w", err)
		}
	}
	for _, s := range services {
		p.Services = append(p.Services, domain.ServiceType(s))
	}
	return &p, nil
}
