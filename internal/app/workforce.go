package app

import (
	"context"
	"time"

	"commandx/internal/core"
)

func (s *appService) ListPersonnel(ctx context.Context, companyCode string, includeDeleted bool) ([]core.Personnel, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Personnel.GetPersonnelList(ctx, company.ID, includeDeleted)
}

func (s *appService) GetPersonnel(ctx context.Context, companyCode string, personnelID int) (*core.Personnel, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Personnel.GetPersonnel(ctx, company.ID, personnelID)
}

func (s *appService) CreatePersonnel(ctx context.Context, req CreatePersonnelRequest) (*core.Personnel, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	hireDate, err := parseOptDate("hire_date", req.HireDate)
	if err != nil {
		return nil, err
	}
	phone, err := s.normalizePhone("phone", req.Phone)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Personnel.CreatePersonnel(ctx, company.ID, core.PersonnelInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      phone,
		JobTitle:   req.JobTitle,
		HireDate:   hireDate,
		HourlyRate: req.HourlyRate,
	})
}

func (s *appService) UpdateCompliance(ctx context.Context, req ComplianceRequest) (*core.Personnel, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	update := core.ComplianceUpdate{
		EVerifyStatus:     req.EVerifyStatus,
		EVerifyCaseNumber: req.EVerifyCaseNumber,
	}
	var err error
	if update.EVerifyExpiry, err = parseOptDatePtr("everify_expiry", req.EVerifyExpiry); err != nil {
		return nil, err
	}
	if update.WorkAuthExpiry, err = parseOptDatePtr("work_auth_expiry", req.WorkAuthExpiry); err != nil {
		return nil, err
	}
	if update.I9CompletedAt, err = parseOptDatePtr("i9_completed_at", req.I9CompletedAt); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Personnel.UpdateCompliance(ctx, company.ID, req.PersonnelID, update)
}

func (s *appService) AddCertification(ctx context.Context, req CertificationRequest) (*core.Certification, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	issued, err := parseOptDate("issued_date", req.IssuedDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseOptDate("expiry_date", req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Personnel.AddCertification(ctx, company.ID, req.PersonnelID, core.CertificationInput{
		Name:              req.Name,
		Issuer:            req.Issuer,
		CertificateNumber: req.CertificateNumber,
		IssuedDate:        issued,
		ExpiryDate:        expiry,
	})
}

func (s *appService) TrashPersonnel(ctx context.Context, companyCode string, personnelID int) error {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return err
	}
	return s.svc.Personnel.TrashPersonnel(ctx, company.ID, personnelID)
}

func (s *appService) RestorePersonnel(ctx context.Context, companyCode string, personnelID int) (*core.Personnel, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Personnel.RestorePersonnel(ctx, company.ID, personnelID)
}

func (s *appService) EvaluateCompliance(ctx context.Context, companyCode string, personnelID int) (*core.PersonnelCompliance, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Personnel.EvaluateCompliance(ctx, company.ID, personnelID, time.Now())
}

func (s *appService) ScanCompliance(ctx context.Context, companyCode string, asOf time.Time) (*ComplianceScanResult, error) {
	company, err := s.company(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	list, err := s.svc.Personnel.ListNonCompliant(ctx, company.ID, asOf)
	if err != nil {
		return nil, err
	}
	critical := 0
	for _, pc := range list {
		if pc.Result.Severity == core.SeverityCritical {
			critical++
		}
	}
	if critical > 0 {
		s.log.Warn().Str("company", companyCode).Int("critical", critical).Int("total", len(list)).
			Msg("personnel out of compliance")
	}
	return &ComplianceScanResult{CompanyCode: company.CompanyCode, AsOf: asOf, Personnel: list}, nil
}

func (s *appService) ClockIn(ctx context.Context, req ClockInRequest) (*core.TimeEntry, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.TimeEntries.ClockIn(ctx, company.ID, core.ClockInInput{
		PersonnelID: req.PersonnelID,
		ProjectID:   req.ProjectID,
		Lat:         req.Lat,
		Lng:         req.Lng,
		At:          time.Now(),
		Notes:       req.Notes,
	})
}

func (s *appService) ClockOut(ctx context.Context, req ClockOutRequest) (*core.TimeEntry, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.TimeEntries.ClockOut(ctx, company.ID, core.ClockOutInput{
		PersonnelID: req.PersonnelID,
		Lat:         req.Lat,
		Lng:         req.Lng,
		At:          time.Now(),
	})
}

func (s *appService) ListTimeEntries(ctx context.Context, req TimeEntryListRequest) ([]core.TimeEntry, error) {
	from, err := parseOptDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseOptDate("to", req.To)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	return s.svc.TimeEntries.GetTimeEntries(ctx, company.ID, core.TimeEntryFilter{
		PersonnelID: req.PersonnelID,
		ProjectID:   req.ProjectID,
		From:        from,
		To:          to,
	})
}
