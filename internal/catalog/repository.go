package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("product not found")

const dialectPostgres = "postgres"

// Querier matches the *pgxpool.Pool method used for reads.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db       Querier
	mediaURL string
	lookups  singleflight.Group
}

// NewRepository builds a product lookup. mediaURL prefixes stored image paths.
func NewRepository(db Querier, mediaURL string) *Repository {
	return &Repository{db: db, mediaURL: mediaURL}
}

// sharedLookupTimeout bounds a deduplicated lookup, which no single caller owns.
const sharedLookupTimeout = 5 * time.Second

// Get returns one product, or ErrNotFound. Concurrent lookups of the same id
// share one query; each caller still returns as soon as its own ctx is done.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	ch := r.lookups.DoChan(strconv.FormatInt(id, 10), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		found, err := r.GetMany(lookupCtx, []int64{id})
		if err != nil {
			return Product{}, err
		}
		p, ok := found[id]
		if !ok {
			return Product{}, ErrNotFound
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return Product{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Product{}, res.Err
		}
		return res.Val.(Product), nil
	}
}

// GetMany returns the products that exist among ids, keyed by id. Missing ids are simply absent.
func (r *Repository) GetMany(ctx context.Context, ids []int64) (map[int64]Product, error) {
	out := make(map[int64]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := buildProductsQuery(ids)
	if err != nil {
		return nil, fmt.Errorf("build products query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                    Product
			price                string
			small, medium, large string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Category, &p.Subcategory, &price, &small, &medium, &large); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse price of product %d: %w", p.ID, err)
		}
		p.Images = Images{
			Small:  r.mediaPath(small),
			Medium: r.mediaPath(medium),
			Large:  r.mediaPath(large),
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (r *Repository) mediaPath(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(r.mediaURL, "/") + "/" + strings.TrimLeft(p, "/")
}

func buildProductsQuery(ids []int64) (string, []any, error) {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T("products").As("p")).
		Join(goqu.T("subcategories").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("p.subcategory_id")))).
		Join(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("s.category_id")))).
		Select(
			goqu.I("p.id"),
			goqu.I("p.name"),
			goqu.I("p.slug"),
			goqu.I("c.name"),
			goqu.I("s.name"),
			goqu.L(`"p"."price"::text`),
			goqu.L(`COALESCE("p"."image_small", '')`),
			goqu.L(`COALESCE("p"."image_medium", '')`),
			goqu.L(`COALESCE("p"."image_large", '')`),
		).
		Where(goqu.I("p.id").In(ids)).
		Order(goqu.I("p.id").Asc()).
		Prepared(true).
		ToSQL()
}
