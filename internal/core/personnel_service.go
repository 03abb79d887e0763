package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type personnelService struct {
	pool *pgxpool.Pool
}

// NewPersonnelService constructs a PersonnelService backed by PostgreSQL.
func NewPersonnelService(pool *pgxpool.Pool) PersonnelService {
	return &personnelService{pool: pool}
}

const personnelColumns = `id, company_id, first_name, last_name, email, phone, job_title, hire_date, hourly_rate,
	everify_status, everify_case_number, everify_expiry, work_auth_expiry, i9_completed_at, deleted_at,
	created_at, updated_at`

func scanPersonnel(row pgx.Row, p *Personnel) error {
	return row.Scan(&p.ID, &p.CompanyID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.JobTitle, &p.HireDate,
		&p.HourlyRate, &p.EVerifyStatus, &p.EVerifyCaseNumber, &p.EVerifyExpiry, &p.WorkAuthExpiry,
		&p.I9CompletedAt, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
}

const certificationColumns = `id, personnel_id, name, issuer, certificate_number, issued_date, expiry_date, created_at`

func scanCertification(row pgx.Row, c *Certification) error {
	return row.Scan(&c.ID, &c.PersonnelID, &c.Name, &c.Issuer, &c.CertificateNumber, &c.IssuedDate,
		&c.ExpiryDate, &c.CreatedAt)
}

func (s *personnelService) CreatePersonnel(ctx context.Context, companyID int, input PersonnelInput) (*Personnel, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if input.FirstName == "" || input.LastName == "" {
		return nil, invalidf("first and last name are required")
	}
	if input.HourlyRate != nil && input.HourlyRate.IsNegative() {
		return nil, invalidf("hourly rate cannot be negative")
	}

	p := &Personnel{}
	err := scanPersonnel(s.pool.QueryRow(ctx, `
		INSERT INTO personnel (company_id, first_name, last_name, email, phone, job_title, hire_date, hourly_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+personnelColumns,
		companyID, input.FirstName, input.LastName, optString(input.Email), optString(input.Phone),
		optString(input.JobTitle), optDate(input.HireDate), input.HourlyRate,
	), p)
	if err != nil {
		return nil, fmt.Errorf("insert personnel: %w", err)
	}
	return p, nil
}

func (s *personnelService) GetPersonnel(ctx context.Context, companyID, personnelID int) (*Personnel, error) {
	p := &Personnel{}
	err := scanPersonnel(s.pool.QueryRow(ctx,
		"SELECT "+personnelColumns+" FROM personnel WHERE id = $1 AND company_id = $2",
		personnelID, companyID,
	), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("personnel", personnelID)
		}
		return nil, fmt.Errorf("get personnel %d: %w", personnelID, err)
	}

	certs, err := s.certifications(ctx, []int{p.ID})
	if err != nil {
		return nil, err
	}
	p.Certifications = certs[p.ID]
	return p, nil
}

func (s *personnelService) GetPersonnelList(ctx context.Context, companyID int, includeDeleted bool) ([]Personnel, error) {
	query := "SELECT " + personnelColumns + " FROM personnel WHERE company_id = $1"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY last_name, first_name, id"

	rows, err := s.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("query personnel: %w", err)
	}
	defer rows.Close()

	var list []Personnel
	var ids []int
	for rows.Next() {
		var p Personnel
		if err := scanPersonnel(rows, &p); err != nil {
			return nil, fmt.Errorf("scan personnel: %w", err)
		}
		list = append(list, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query personnel: %w", err)
	}

	certs, err := s.certifications(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Certifications = certs[list[i].ID]
	}
	return list, nil
}

func (s *personnelService) UpdateCompliance(ctx context.Context, companyID, personnelID int, update ComplianceUpdate) (*Personnel, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE personnel
		SET everify_status      = COALESCE($1, everify_status),
		    everify_case_number = COALESCE($2, everify_case_number),
		    everify_expiry      = COALESCE($3::date, everify_expiry),
		    work_auth_expiry    = COALESCE($4::date, work_auth_expiry),
		    i9_completed_at     = COALESCE($5, i9_completed_at),
		    updated_at          = NOW()
		WHERE id = $6 AND company_id = $7`,
		update.EVerifyStatus, update.EVerifyCaseNumber, optDate(update.EVerifyExpiry), optDate(update.WorkAuthExpiry),
		update.I9CompletedAt, personnelID, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update personnel %d compliance: %w", personnelID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound("personnel", personnelID)
	}
	return s.GetPersonnel(ctx, companyID, personnelID)
}

func (s *personnelService) AddCertification(ctx context.Context, companyID, personnelID int, input CertificationInput) (*Certification, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, invalidf("certification name is required")
	}
	if input.IssuedDate != nil && input.ExpiryDate != nil && input.ExpiryDate.Before(*input.IssuedDate) {
		return nil, invalidf("certification cannot expire before it was issued")
	}
	if err := requireOwned(ctx, s.pool, "personnel", "personnel", companyID, personnelID); err != nil {
		return nil, err
	}

	c := &Certification{}
	err := scanCertification(s.pool.QueryRow(ctx, `
		INSERT INTO personnel_certifications (personnel_id, name, issuer, certificate_number, issued_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+certificationColumns,
		personnelID, strings.TrimSpace(input.Name), optString(input.Issuer), optString(input.CertificateNumber),
		optDate(input.IssuedDate), optDate(input.ExpiryDate),
	), c)
	if err != nil {
		return nil, fmt.Errorf("insert certification: %w", err)
	}
	return c, nil
}

func (s *personnelService) TrashPersonnel(ctx context.Context, companyID, personnelID int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE personnel SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`,
		personnelID, companyID,
	)
	if err != nil {
		return fmt.Errorf("trash personnel %d: %w", personnelID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("personnel", personnelID)
	}
	return nil
}

func (s *personnelService) RestorePersonnel(ctx context.Context, companyID, personnelID int) (*Personnel, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE personnel SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NOT NULL`,
		personnelID, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("restore personnel %d: %w", personnelID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("personnel %d is not in the trash: %w", personnelID, ErrNotFound)
	}
	return s.GetPersonnel(ctx, companyID, personnelID)
}

func (s *personnelService) EvaluateCompliance(ctx context.Context, companyID, personnelID int, now time.Time) (*PersonnelCompliance, error) {
	p, err := s.GetPersonnel(ctx, companyID, personnelID)
	if err != nil {
		return nil, err
	}
	return &PersonnelCompliance{Personnel: p, Result: EvaluateCompliance(p.ComplianceFacts(), now)}, nil
}

func (s *personnelService) ListNonCompliant(ctx context.Context, companyID int, now time.Time) ([]PersonnelCompliance, error) {
	list, err := s.GetPersonnelList(ctx, companyID, false)
	if err != nil {
		return nil, err
	}

	var out []PersonnelCompliance
	for i := range list {
		result := EvaluateCompliance(list[i].ComplianceFacts(), now)
		if result.IsOutOfCompliance {
			out = append(out, PersonnelCompliance{Personnel: &list[i], Result: result})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Severity.rank() > out[j].Result.Severity.rank()
	})
	return out, nil
}

// certifications loads certifications grouped by personnel ID.
func (s *personnelService) certifications(ctx context.Context, personnelIDs []int) (map[int][]Certification, error) {
	out := make(map[int][]Certification, len(personnelIDs))
	if len(personnelIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+certificationColumns+" FROM personnel_certifications WHERE personnel_id = ANY($1) ORDER BY expiry_date NULLS LAST, id",
		personnelIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query certifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c Certification
		if err := scanCertification(rows, &c); err != nil {
			return nil, fmt.Errorf("scan certification: %w", err)
		}
		out[c.PersonnelID] = append(out[c.PersonnelID], c)
	}
	return out, rows.Err()
}
