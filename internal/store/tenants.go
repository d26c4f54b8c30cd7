package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"forum-tenant-sync/internal/errors"

	"github.com/google/uuid"
)

const tenantColumns = "id, domain, name, settings, owner_id, created_at"

// GetTenant fetches a tenant by id; a missing tenant is a not_found error
func (s *SQLStore) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	if id == "" {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "tenant id cannot be empty", nil)
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(queryCtx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id = ?", id)
	tenant, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("tenant %s not found", id), err)
	}
	if err != nil {
		return nil, errors.WrapError(err, "failed to fetch tenant")
	}

	return tenant, nil
}

// GetTenantByDomain fetches a tenant by its domain natural key
func (s *SQLStore) GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error) {
	if domain == "" {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "tenant domain cannot be empty", nil)
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(queryCtx,
		"SELECT "+tenantColumns+" FROM tenants WHERE domain = ?", domain)
	tenant, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("tenant with domain %s not found", domain), err)
	}
	if err != nil {
		return nil, errors.WrapError(err, "failed to fetch tenant by domain")
	}

	return tenant, nil
}

// CreateTenant inserts a new tenant. A missing id is assigned; a duplicate id
// or domain surfaces as a conflict.
func (s *SQLStore) CreateTenant(ctx context.Context, tenant *Tenant) error {
	if tenant == nil {
		return errors.NewAppError(errors.ErrorTypeValidation, "tenant cannot be nil", nil)
	}
	if tenant.Domain == "" {
		return errors.NewAppError(errors.ErrorTypeValidation, "tenant domain is required", nil)
	}

	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(queryCtx,
		"INSERT INTO tenants (id, domain, name, settings, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		tenant.ID, tenant.Domain, tenant.Name, tenant.Settings, nullable(tenant.OwnerID), tenant.CreatedAt)
	if err != nil {
		if errors.IsDuplicate(err) {
			return errors.NewConflictError(
				fmt.Sprintf("tenant %s (domain %s) already exists", tenant.ID, tenant.Domain), err)
		}
		return errors.WrapError(err, "failed to create tenant")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTenant(row rowScanner) (*Tenant, error) {
	var tenant Tenant
	var settings, ownerID sql.NullString

	if err := row.Scan(&tenant.ID, &tenant.Domain, &tenant.Name,
		&settings, &ownerID, &tenant.CreatedAt); err != nil {
		return nil, err
	}

	tenant.Settings = settings.String
	tenant.OwnerID = ownerID.String
	return &tenant, nil
}

// nullable converts an empty string into a SQL NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
