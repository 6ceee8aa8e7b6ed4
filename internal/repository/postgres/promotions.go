package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/repository"
)

type PromotionRepo struct {
	pool *pgxpool.Pool
}

// ListAll returns promotions in insertion order.
func (r *PromotionRepo) ListAll(ctx context.Context) ([]domain.Promotion, error) {
	const op = "postgresrepo.PromotionRepo.ListAll"

	db := handle(ctx, r.pool)

	rows, err := db.Query(ctx,
		`SELECT id, name, description, discount_percent, route_names, service_classes,
		        valid_from, valid_to, only_for_loyalty_members, train_type, user_types
		 FROM promotions
		 ORDER BY seq`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Promotion
	for rows.Next() {
		var (
			p         domain.Promotion
			userTypes []string
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.DiscountPercent, &p.RouteNames, &p.ServiceClasses,
			&p.ValidFrom, &p.ValidTo, &p.OnlyForLoyaltyMembers, &p.TrainType, &userTypes,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		for _, u := range userTypes {
			p.UserTypes = append(p.UserTypes, domain.ParseTier(u))
		}

		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Add inserts a promotion.
//
// Returns:
//   - error: repository.ErrConflict if a promotion with the same id exists.
func (r *PromotionRepo) Add(ctx context.Context, p domain.Promotion) error {
	const op = "postgresrepo.PromotionRepo.Add"

	db := handle(ctx, r.pool)

	userTypes := make([]string, 0, len(p.UserTypes))
	for _, u := range p.UserTypes {
		userTypes = append(userTypes, string(u))
	}

	_, err := db.Exec(ctx,
		`INSERT INTO promotions(id, name, description, discount_percent, route_names,
		        service_classes, valid_from, valid_to, only_for_loyalty_members, train_type, user_types)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Description, p.DiscountPercent, nonNil(p.RouteNames),
		nonNil(p.ServiceClasses), p.ValidFrom, p.ValidTo, p.OnlyForLoyaltyMembers, p.TrainType, userTypes,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *PromotionRepo) DeleteByID(ctx context.Context, id string) error {
	const op = "postgresrepo.PromotionRepo.DeleteByID"

	db := handle(ctx, r.pool)

	tag, err := db.Exec(ctx, `DELETE FROM promotions WHERE lower(id) = lower($1)`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
