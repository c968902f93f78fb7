package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/repository"
	"github.com/utafrali/catalogadmin/pkg/database"
	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
	"github.com/utafrali/catalogadmin/pkg/pagination"
)

// Localized columns fall back to the default language, then to the slug.
const productColumns = `p.id, p.slug,
	COALESCE(t.lang, f.lang, $1) AS lang,
	COALESCE(t.name, f.name, p.slug) AS name,
	COALESCE(t.description, f.description, '') AS description,
	p.status, p.base_price, p.currency, p.category, COALESCE(p.image_url, '') AS image_url,
	p.sales_count, p.created_at, p.updated_at`

const translationJoins = `FROM products p
	LEFT JOIN product_translations t ON t.product_id = p.id AND t.lang = $1
	LEFT JOIN product_translations f ON f.product_id = p.id AND f.lang = 'en'`

// ProductRepository implements repository.ProductRepository on PostgreSQL.
type ProductRepository struct {
	db DBTX
}

// NewProductRepository creates a repository over db.
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// List returns one page of products and the total number of matches.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, total int, err error) {
	args := []any{langOrDefault(filter.Lang)}
	var conditions []string

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("COALESCE(t.name, f.name, p.slug) ILIKE $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.PageSize
	if limit <= 0 {
		limit = pagination.DefaultPageSize
	}
	offset := pagination.Params{PageIndex: max(filter.PageIndex, 0), PageSize: limit}.Offset()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s, count(*) OVER() AS total_count
	%s
	%s
	ORDER BY p.created_at DESC, p.id
	LIMIT $%d OFFSET $%d`, productColumns, translationJoins, where, len(args)-1, len(args))

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		var p domain.Product
		dest := append(scanTargets(&p), &total)
		var lang string
		dest[2] = &lang
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		p.Lang = domain.Lang(lang)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, total, nil
}

// GetByID returns one localized product.
func (r *ProductRepository) GetByID(ctx context.Context, id string, lang domain.Lang) (p *domain.Product, err error) {
	query := fmt.Sprintf(`SELECT %s
	%s
	WHERE p.id = $2`, productColumns, translationJoins)

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p = &domain.Product{}
	var l string
	dest := scanTargets(p)
	dest[2] = &l
	if err := r.db.QueryRow(ctx, query, langOrDefault(lang), id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	p.Lang = domain.Lang(l)
	return p, nil
}

// TopProducts returns the best-selling published products.
func (r *ProductRepository) TopProducts(ctx context.Context, lang domain.Lang, limit int) (products []domain.Product, err error) {
	query := fmt.Sprintf(`SELECT %s
	%s
	WHERE p.status = 'published'
	ORDER BY p.sales_count DESC, p.id
	LIMIT $2`, productColumns, translationJoins)

	ctx, end := database.TraceQuery(ctx, "TopProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, langOrDefault(lang), limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		var p domain.Product
		var l string
		dest := scanTargets(&p)
		dest[2] = &l
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan top product row: %w", err)
		}
		p.Lang = domain.Lang(l)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top product rows: %w", err)
	}
	return products, nil
}

// Delete removes a product. Translations go with it (ON DELETE CASCADE).
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	const query = `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

var summaryColumns = map[domain.SummaryDimension]string{
	domain.SummaryByStatus:   "status",
	domain.SummaryByCategory: "category",
}

// CountBy returns product counts grouped by dimension, largest first.
func (r *ProductRepository) CountBy(ctx context.Context, dimension domain.SummaryDimension) (out []domain.SummaryRow, err error) {
	col, ok := summaryColumns[dimension]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown summary dimension %q", dimension))
	}
	query := fmt.Sprintf(`SELECT %[1]s, count(*) FROM products GROUP BY %[1]s ORDER BY count(*) DESC, %[1]s`, col)

	ctx, end := database.TraceQuery(ctx, "CountProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count products by %s: %w", col, err)
	}
	defer rows.Close()

	out = []domain.SummaryRow{}
	for rows.Next() {
		var row domain.SummaryRow
		if err := rows.Scan(&row.Label, &row.Count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return out, nil
}

// scanTargets lists the destinations of productColumns in order. Index 2
// (lang) must be replaced by the caller with a *string.
func scanTargets(p *domain.Product) []any {
	return []any{
		&p.ID, &p.Slug, nil, &p.Name, &p.Description,
		&p.Status, &p.BasePrice, &p.Currency, &p.Category, &p.ImageURL,
		&p.SalesCount, &p.CreatedAt, &p.UpdatedAt,
	}
}

func langOrDefault(l domain.Lang) string {
	if l == "" {
		return string(domain.DefaultLang)
	}
	return string(l)
}
