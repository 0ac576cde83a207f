package customers

import (
	"context"
	"database/sql"

	"github.com/nattawatz/shop-api/internal/domain"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts the customer and fills in its store-assigned ID. A
// duplicate email violates the unique constraint and surfaces as the
// driver's error.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO customers (full_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, customer.FullName, customer.Email, customer.PasswordHash, customer.CreatedAt).Scan(&customer.ID)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	customer := &domain.Customer{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, password_hash, created_at
		FROM customers
		WHERE email = $1
	`, email).Scan(&customer.ID, &customer.FullName, &customer.Email, &customer.PasswordHash, &customer.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return customer, nil
}
