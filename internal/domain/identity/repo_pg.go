package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/internal/platform/db"
)

// =========== Professional Repository ===========

type professionalRepoPG struct{ pool *pgxpool.Pool }

func NewProfessionalRepoPG(pool *pgxpool.Pool) ProfessionalRepository {
	return &professionalRepoPG{pool: pool}
}

func (r *professionalRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const professionalCols = `id, first_name, last_name, email, profession, custom_url, site_config, active, created_at, updated_at`

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	var profession *string
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &profession, &p.CustomURL,
		&p.SiteConfig, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("professional")
	}
	if err != nil {
		return nil, fmt.Errorf("scan professional: %w", err)
	}
	if profession != nil {
		p.Profession = *profession
	}
	return &p, nil
}

func (r *professionalRepoPG) Create(ctx context.Context, p *Professional) error {
	p.ID = uuid.New()
	p.Active = true
	var siteConfig interface{}
	if len(p.SiteConfig) > 0 {
		siteConfig = string(p.SiteConfig)
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO professional (id, first_name, last_name, email, profession, custom_url, site_config, active)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7::jsonb,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Profession, p.CustomURL, siteConfig, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Validation("email or custom_url already registered")
	}
	return err
}

func (r *professionalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	return scanProfessional(r.conn(ctx).QueryRow(ctx, `SELECT `+professionalCols+` FROM professional WHERE id = $1`, id))
}

func (r *professionalRepoPG) GetByCustomURL(ctx context.Context, customURL string) (*Professional, error) {
	return scanProfessional(r.conn(ctx).QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professional WHERE custom_url = $1 AND active`, customURL))
}

func (r *professionalRepoPG) UpdateSiteConfig(ctx context.Context, id uuid.UUID, siteConfig json.RawMessage) error {
	var v interface{}
	if len(siteConfig) > 0 {
		v = string(siteConfig)
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE professional SET site_config = $2::jsonb, updated_at = NOW() WHERE id = $1`, id, v)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("professional")
	}
	return nil
}

func (r *professionalRepoPG) List(ctx context.Context, limit, offset int) ([]*Professional, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM professional`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+professionalCols+` FROM professional ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Client Repository ===========

type clientRepoPG struct{ pool *pgxpool.Pool }

func NewClientRepoPG(pool *pgxpool.Pool) ClientRepository { return &clientRepoPG{pool: pool} }

func (r *clientRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const clientCols = `id, first_name, last_name, email, phone, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var cl Client
	err := row.Scan(&cl.ID, &cl.FirstName, &cl.LastName, &cl.Email, &cl.Phone, &cl.CreatedAt, &cl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("client")
	}
	if err != nil {
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return &cl, nil
}

func (r *clientRepoPG) Create(ctx context.Context, cl *Client) error {
	cl.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO client (id, first_name, last_name, email, phone)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		cl.ID, cl.FirstName, cl.LastName, cl.Email, cl.Phone,
	).Scan(&cl.CreatedAt, &cl.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Validation("email already registered")
	}
	return err
}

func (r *clientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	return scanClient(r.conn(ctx).QueryRow(ctx, `SELECT `+clientCols+` FROM client WHERE id = $1`, id))
}

func (r *clientRepoPG) List(ctx context.Context, limit, offset int) ([]*Client, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM client`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+clientCols+` FROM client ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Client
	for rows.Next() {
		cl, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, cl)
	}
	return items, total, rows.Err()
}
