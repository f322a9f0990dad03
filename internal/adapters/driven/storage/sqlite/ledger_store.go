package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// ledgerStore implements driven.LedgerStore.
type ledgerStore struct {
	store *Store
}

var _ driven.LedgerStore = (*ledgerStore)(nil)

// SaveCustomer stores or updates a customer.
func (s *ledgerStore) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	if customer.ID == "" {
		return domain.ErrValidation
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO customers (id, email, name, phone, created_at, total_spent, purchase_count, is_premium)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			phone = excluded.phone,
			total_spent = excluded.total_spent,
			purchase_count = excluded.purchase_count,
			is_premium = excluded.is_premium
	`, customer.ID, customer.Email, customer.Name, nullString(customer.Phone),
		formatNullableTime(customer.CreatedAt), customer.TotalSpent,
		customer.PurchaseCount, boolToInt(customer.IsPremium))

	if err != nil {
		return fmt.Errorf("saving customer: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

// Customer retrieves a customer by ID.
func (s *ledgerStore) Customer(ctx context.Context, id string) (*domain.Customer, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, email, name, phone, created_at, total_spent, purchase_count, is_premium
		FROM customers WHERE id = ?
	`, id)

	return scanCustomer(row)
}

// CustomerByEmail retrieves a customer by email, case-insensitively.
func (s *ledgerStore) CustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, email, name, phone, created_at, total_spent, purchase_count, is_premium
		FROM customers WHERE email = ? COLLATE NOCASE
	`, email)

	return scanCustomer(row)
}

// SaveOrder stores or updates an order.
func (s *ledgerStore) SaveOrder(ctx context.Context, order domain.Order) error {
	if order.ID == "" {
		return domain.ErrValidation
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO orders
			(id, customer_id, product_id, amount, status, payment_method,
			 created_at, completed_at, deliverable_generated, deliverable_path, delivered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			payment_method = excluded.payment_method,
			completed_at = excluded.completed_at,
			deliverable_generated = excluded.deliverable_generated,
			deliverable_path = excluded.deliverable_path,
			delivered = excluded.delivered
	`, order.ID, order.CustomerID, order.ProductID, order.Amount,
		string(order.Status), nullString(order.PaymentMethod),
		formatNullableTime(order.CreatedAt), formatNullableTime(order.CompletedAt),
		boolToInt(order.DeliverableGenerated), nullString(order.DeliverablePath),
		boolToInt(order.Delivered))

	if err != nil {
		return fmt.Errorf("saving order: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

// Order retrieves an order by ID.
func (s *ledgerStore) Order(ctx context.Context, id string) (*domain.Order, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, customer_id, product_id, amount, status, payment_method,
		       created_at, completed_at, deliverable_generated, deliverable_path, delivered
		FROM orders WHERE id = ?
	`, id)

	return scanOrder(row)
}

// CompleteOrder transitions a pending order to completed and updates
// the owning customer's accumulators in the same transaction.
func (s *ledgerStore) CompleteOrder(
	ctx context.Context,
	orderID string,
	completedAt time.Time,
	markPremium bool,
) (*domain.Order, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var status, customerID string
	var amount float64
	err = tx.QueryRowContext(ctx,
		"SELECT status, customer_id, amount FROM orders WHERE id = ?", orderID).
		Scan(&status, &customerID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading order: %w: %v", domain.ErrStorage, err)
	}

	if domain.OrderStatus(status) != domain.OrderPending {
		return nil, fmt.Errorf("order %s is %s, not pending: %w", orderID, status, domain.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = ?, completed_at = ? WHERE id = ?",
		string(domain.OrderCompleted), formatNullableTime(completedAt), orderID); err != nil {
		return nil, fmt.Errorf("completing order: %w: %v", domain.ErrStorage, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE customers SET
			total_spent = total_spent + ?,
			purchase_count = purchase_count + 1,
			is_premium = CASE WHEN ? = 1 THEN 1 ELSE is_premium END
		WHERE id = ?
	`, amount, boolToInt(markPremium), customerID); err != nil {
		return nil, fmt.Errorf("updating customer accumulators: %w: %v", domain.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w: %v", domain.ErrStorage, err)
	}

	return s.Order(ctx, orderID)
}

// TransitionOrder moves a completed order to a terminal status.
func (s *ledgerStore) TransitionOrder(ctx context.Context, orderID string, to domain.OrderStatus) error {
	if !to.Terminal() {
		return fmt.Errorf("cannot transition to %s: %w", to, domain.ErrValidation)
	}

	res, err := s.store.db.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ? AND status = ?",
		string(to), orderID, string(domain.OrderCompleted))
	if err != nil {
		return fmt.Errorf("transitioning order: %w: %v", domain.ErrStorage, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking transition: %w: %v", domain.ErrStorage, err)
	}
	if n == 0 {
		// Distinguish an unknown order from a bad state.
		if _, getErr := s.Order(ctx, orderID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("order %s is not completed: %w", orderID, domain.ErrConflict)
	}
	return nil
}

// SetDeliverable records the rendered document path. Monotonic.
func (s *ledgerStore) SetDeliverable(ctx context.Context, orderID, path string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE orders SET deliverable_generated = 1, deliverable_path = ? WHERE id = ?",
		path, orderID)
	if err != nil {
		return fmt.Errorf("setting deliverable: %w: %v", domain.ErrStorage, err)
	}
	return requireRow(res, orderID)
}

// SetDelivered marks the order's deliverable as dispatched. Monotonic.
func (s *ledgerStore) SetDelivered(ctx context.Context, orderID string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE orders SET delivered = 1 WHERE id = ?", orderID)
	if err != nil {
		return fmt.Errorf("setting delivered: %w: %v", domain.ErrStorage, err)
	}
	return requireRow(res, orderID)
}

// PendingDeliverables returns completed orders not yet delivered,
// oldest first.
func (s *ledgerStore) PendingDeliverables(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, customer_id, product_id, amount, status, payment_method,
		       created_at, completed_at, deliverable_generated, deliverable_path, delivered
		FROM orders
		WHERE status = ? AND delivered = 0
		ORDER BY created_at
	`, string(domain.OrderCompleted))
	if err != nil {
		return nil, fmt.Errorf("querying pending deliverables: %w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var orders []domain.Order //nolint:prealloc // size unknown from query
	for rows.Next() {
		order, err := scanOrderRows(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w: %v", domain.ErrStorage, err)
	}

	return orders, nil
}

// UpsellCandidates returns completed orders of non-premium customers
// created at or after the cutoff.
func (s *ledgerStore) UpsellCandidates(ctx context.Context, cutoff time.Time) ([]domain.CandidatePair, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.email, c.name, c.phone, c.created_at, c.total_spent, c.purchase_count, c.is_premium,
		       o.id, o.customer_id, o.product_id, o.amount, o.status, o.payment_method,
		       o.created_at, o.completed_at, o.deliverable_generated, o.deliverable_path, o.delivered
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.status = ? AND c.is_premium = 0 AND o.created_at >= ?
		ORDER BY o.created_at
	`, string(domain.OrderCompleted), cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying upsell candidates: %w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var pairs []domain.CandidatePair //nolint:prealloc // size unknown from query
	for rows.Next() {
		var pair domain.CandidatePair
		var custPhone, custCreated sql.NullString
		var custPremium int
		var ordStatus string
		var ordPayment, ordCreated, ordCompleted, ordPath sql.NullString
		var ordGenerated, ordDelivered int

		if err := rows.Scan(
			&pair.Customer.ID, &pair.Customer.Email, &pair.Customer.Name, &custPhone,
			&custCreated, &pair.Customer.TotalSpent, &pair.Customer.PurchaseCount, &custPremium,
			&pair.Order.ID, &pair.Order.CustomerID, &pair.Order.ProductID, &pair.Order.Amount,
			&ordStatus, &ordPayment, &ordCreated, &ordCompleted,
			&ordGenerated, &ordPath, &ordDelivered,
		); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w: %v", domain.ErrStorage, err)
		}

		pair.Customer.Phone = custPhone.String
		pair.Customer.CreatedAt = parseNullableTime(custCreated)
		pair.Customer.IsPremium = custPremium == 1
		pair.Order.Status = domain.OrderStatus(ordStatus)
		pair.Order.PaymentMethod = ordPayment.String
		pair.Order.CreatedAt = parseNullableTime(ordCreated)
		pair.Order.CompletedAt = parseNullableTime(ordCompleted)
		pair.Order.DeliverableGenerated = ordGenerated == 1
		pair.Order.DeliverablePath = ordPath.String
		pair.Order.Delivered = ordDelivered == 1

		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w: %v", domain.ErrStorage, err)
	}

	return pairs, nil
}

// Stats computes the aggregate ledger metrics.
func (s *ledgerStore) Stats(ctx context.Context) (*domain.Metrics, error) {
	var m domain.Metrics

	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_premium), 0) FROM customers
	`).Scan(&m.TotalCustomers, &m.PremiumCustomers)
	if err != nil {
		return nil, fmt.Errorf("aggregating customers: %w: %v", domain.ErrStorage, err)
	}

	err = s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0)
		FROM orders
	`, string(domain.OrderCompleted), string(domain.OrderCompleted)).
		Scan(&m.TotalOrders, &m.CompletedOrders, &m.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("aggregating orders: %w: %v", domain.ErrStorage, err)
	}

	if m.TotalOrders > 0 {
		m.ConversionRate = float64(m.CompletedOrders) / float64(m.TotalOrders) * 100
	}
	if m.CompletedOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue / float64(m.CompletedOrders)
	}

	return &m, nil
}

// ==================== Helper Functions ====================

// requireRow maps a zero-row update to ErrNotFound.
func requireRow(res sql.Result, orderID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w: %v", domain.ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return nil
}

// scanCustomer scans a single customer row.
func scanCustomer(row *sql.Row) (*domain.Customer, error) {
	var customer domain.Customer
	var phone, createdAt sql.NullString
	var isPremium int

	if err := row.Scan(&customer.ID, &customer.Email, &customer.Name, &phone,
		&createdAt, &customer.TotalSpent, &customer.PurchaseCount, &isPremium); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning customer: %w: %v", domain.ErrStorage, err)
	}

	customer.Phone = phone.String
	customer.CreatedAt = parseNullableTime(createdAt)
	customer.IsPremium = isPremium == 1

	return &customer, nil
}

// scanOrder scans a single order row.
func scanOrder(row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	var status string
	var payment, createdAt, completedAt, path sql.NullString
	var generated, delivered int

	if err := row.Scan(&order.ID, &order.CustomerID, &order.ProductID, &order.Amount,
		&status, &payment, &createdAt, &completedAt, &generated, &path, &delivered); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning order: %w: %v", domain.ErrStorage, err)
	}

	order.Status = domain.OrderStatus(status)
	order.PaymentMethod = payment.String
	order.CreatedAt = parseNullableTime(createdAt)
	order.CompletedAt = parseNullableTime(completedAt)
	order.DeliverableGenerated = generated == 1
	order.DeliverablePath = path.String
	order.Delivered = delivered == 1

	return &order, nil
}

// scanOrderRows scans an order from *sql.Rows.
func scanOrderRows(rows *sql.Rows) (*domain.Order, error) {
	var order domain.Order
	var status string
	var payment, createdAt, completedAt, path sql.NullString
	var generated, delivered int

	if err := rows.Scan(&order.ID, &order.CustomerID, &order.ProductID, &order.Amount,
		&status, &payment, &createdAt, &completedAt, &generated, &path, &delivered); err != nil {
		return nil, fmt.Errorf("scanning order: %w: %v", domain.ErrStorage, err)
	}

	order.Status = domain.OrderStatus(status)
	order.PaymentMethod = payment.String
	order.CreatedAt = parseNullableTime(createdAt)
	order.CompletedAt = parseNullableTime(completedAt)
	order.DeliverableGenerated = generated == 1
	order.DeliverablePath = path.String
	order.Delivered = delivered == 1

	return &order, nil
}
