package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/ims/internal/core/domain"
)

// MySQLAdapter backs every repository port with a single *sql.DB. Each
// business mutation runs as one transaction carrying its audit entry, so the
// ledger change and the log line commit or roll back together.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func insertAuditEntry(ctx context.Context, tx *sql.Tx, entry domain.AuditEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, date, type, description)
		VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Date, entry.Type, entry.Description,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// --- stocks ---

const stockColumns = `id, name, serial_number, buy_price, sell_price, supplier_id, amount, created_at, updated_at`

func scanStock(row interface{ Scan(...any) error }) (domain.Stock, error) {
	var s domain.Stock
	err := row.Scan(&s.ID, &s.Name, &s.SerialNumber, &s.BuyPrice, &s.SellPrice,
		&s.SupplierID, &s.Amount, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (m *MySQLAdapter) GetStock(ctx context.Context, id string) (*domain.Stock, error) {
	s, err := scanStock(m.db.QueryRowContext(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query stock: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) GetStocksByIDs(ctx context.Context, ids []string) ([]domain.Stock, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

func (m *MySQLAdapter) ListStocks(ctx context.Context) ([]domain.Stock, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+stockColumns+` FROM stocks ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

func (m *MySQLAdapter) CreateStock(ctx context.Context, stock domain.Stock, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stocks (`+stockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stock.ID, stock.Name, stock.SerialNumber, stock.BuyPrice, stock.SellPrice,
		stock.SupplierID, stock.Amount, stock.CreatedAt, stock.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) UpdateStock(ctx context.Context, stock domain.Stock, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE stocks
		SET name = ?, serial_number = ?, buy_price = ?, sell_price = ?, supplier_id = ?, amount = ?, updated_at = NOW(6)
		WHERE id = ?`,
		stock.Name, stock.SerialNumber, stock.BuyPrice, stock.SellPrice,
		stock.SupplierID, stock.Amount, stock.ID,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		// MySQL reports zero rows for a no-change update too; confirm the row
		// is actually missing before failing.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM stocks WHERE id = ?)`, stock.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check stock: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: stock %s", domain.ErrNotFound, stock.ID)
		}
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) DeleteStock(ctx context.Context, id string, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM stocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, id)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) IncrementStock(ctx context.Context, id string, amount int, entry domain.AuditEntry) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE stocks SET amount = amount + ?, updated_at = NOW(6) WHERE id = ?`,
		amount, id,
	)
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return 0, fmt.Errorf("%w: stock %s", domain.ErrNotFound, id)
	}

	var newAmount int
	if err := tx.QueryRowContext(ctx,
		`SELECT amount FROM stocks WHERE id = ?`, id).Scan(&newAmount); err != nil {
		return 0, fmt.Errorf("read stock amount: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newAmount, nil
}

// --- suppliers ---

func (m *MySQLAdapter) CreateSupplier(ctx context.Context, supplier domain.Supplier, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, created_at) VALUES (?, ?, ?)`,
		supplier.ID, supplier.Name, supplier.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var s domain.Supplier
	err := m.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM suppliers WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query supplier: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) SupplierNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM suppliers WHERE LOWER(name) = LOWER(?))`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check supplier name: %w", err)
	}
	return exists, nil
}

func (m *MySQLAdapter) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []domain.Supplier
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// --- sellers ---

func (m *MySQLAdapter) CreateSeller(ctx context.Context, seller domain.Seller, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sellers (id, name, status, created_at) VALUES (?, ?, ?, ?)`,
		seller.ID, seller.Name, seller.Status, seller.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) GetSeller(ctx context.Context, id string) (*domain.Seller, error) {
	var s domain.Seller
	err := m.db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at FROM sellers WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Status, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query seller: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) SellerNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sellers WHERE LOWER(name) = LOWER(?))`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check seller name: %w", err)
	}
	return exists, nil
}

func (m *MySQLAdapter) UpdateSellerStatus(ctx context.Context, seller domain.Seller, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE sellers SET status = ? WHERE id = ?`, seller.Status, seller.ID)
	if err != nil {
		return fmt.Errorf("update seller: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: seller %s", domain.ErrNotFound, seller.ID)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, name, status, created_at FROM sellers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	var sellers []domain.Seller
	for rows.Next() {
		var s domain.Seller
		if err := rows.Scan(&s.ID, &s.Name, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		sellers = append(sellers, s)
	}
	return sellers, rows.Err()
}

// --- purchases ---

func (m *MySQLAdapter) CreatePurchase(ctx context.Context, purchase domain.Purchase, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchases (id, seller_id, buyer_name, status, purchase_date)
		VALUES (?, ?, ?, ?, ?)`,
		purchase.ID, purchase.SellerID, purchase.BuyerName, purchase.Status, purchase.PurchaseDate,
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}

	for _, item := range purchase.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchase_items (purchase_id, stock_id, amount)
			VALUES (?, ?, ?)`,
			purchase.ID, item.StockID, item.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert purchase item: %w", err)
		}

		// The amount guard is the write-time protection against lost updates:
		// two concurrent purchases can both pass the service pre-check, but
		// only one wins here.
		result, err := tx.ExecContext(ctx, `
			UPDATE stocks
			SET amount = amount - ?, updated_at = NOW(6)
			WHERE id = ? AND amount >= ?`,
			item.Amount, item.StockID, item.Amount,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("%w: stock %s", domain.ErrInsufficientStock, item.StockID)
		}
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, seller_id, buyer_name, status, purchase_date
		FROM purchases ORDER BY purchase_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	index := make(map[string]int)
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.SellerID, &p.BuyerName, &p.Status, &p.PurchaseDate); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		index[p.ID] = len(purchases)
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := m.db.QueryContext(ctx, `
		SELECT purchase_id, stock_id, amount FROM purchase_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query purchase items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var purchaseID string
		var item domain.PurchaseItem
		if err := itemRows.Scan(&purchaseID, &item.StockID, &item.Amount); err != nil {
			return nil, fmt.Errorf("scan purchase item: %w", err)
		}
		if i, ok := index[purchaseID]; ok {
			purchases[i].Items = append(purchases[i].Items, item)
		}
	}
	return purchases, itemRows.Err()
}

func (m *MySQLAdapter) GetPurchaseInvoice(ctx context.Context, id string) (*domain.PurchaseInvoice, error) {
	var inv domain.PurchaseInvoice
	err := m.db.QueryRowContext(ctx, `
		SELECT p.id, s.name, p.buyer_name, p.status, p.purchase_date
		FROM purchases p
		JOIN sellers s ON s.id = p.seller_id
		WHERE p.id = ?`, id,
	).Scan(&inv.PurchaseID, &inv.SellerName, &inv.BuyerName, &inv.Status, &inv.PurchaseDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query purchase: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT COALESCE(st.name, 'unknown stock'), pi.amount, COALESCE(st.sell_price, 0)
		FROM purchase_items pi
		LEFT JOIN stocks st ON st.id = pi.stock_id
		WHERE pi.purchase_id = ?
		ORDER BY pi.id`, id)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.InvoiceLine
		if err := rows.Scan(&line.StockName, &line.Amount, &line.SellPrice); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// --- supplier orders ---

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.SupplierOrder, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO supplier_orders (id, supplier_id, status, created_at, status_changed_at)
		VALUES (?, ?, ?, ?, NULL)`,
		order.ID, order.SupplierID, order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert supplier order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO supplier_order_items (supplier_order_id, stock_id, amount)
			VALUES (?, ?, ?)`,
			order.ID, item.StockID, item.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.SupplierOrder, error) {
	var o domain.SupplierOrder
	var changedAt sql.NullTime
	err := m.db.QueryRowContext(ctx, `
		SELECT id, supplier_id, status, created_at, status_changed_at
		FROM supplier_orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.SupplierID, &o.Status, &o.CreatedAt, &changedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query supplier order: %w", err)
	}
	if changedAt.Valid {
		o.StatusChangedAt = &changedAt.Time
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT stock_id, amount FROM supplier_order_items
		WHERE supplier_order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.StockID, &item.Amount); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MySQLAdapter) FinalizeOrder(ctx context.Context, order domain.SupplierOrder, applyStock bool, entry domain.AuditEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// The status guard serializes concurrent receive/cancel attempts: the
	// first transition wins, the rest see zero rows.
	result, err := tx.ExecContext(ctx, `
		UPDATE supplier_orders
		SET status = ?, status_changed_at = ?
		WHERE id = ? AND status = ?`,
		order.Status, order.StatusChangedAt, order.ID, domain.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("update supplier order: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: order %s is not pending", domain.ErrInvalidTransition, order.ID)
	}

	if applyStock {
		for _, item := range order.Items {
			// A referenced stock may have been deleted after the order was
			// created; zero affected rows is a skip, not a failure.
			_, err := tx.ExecContext(ctx, `
				UPDATE stocks SET amount = amount + ?, updated_at = NOW(6) WHERE id = ?`,
				item.Amount, item.StockID,
			)
			if err != nil {
				return fmt.Errorf("increment stock: %w", err)
			}
		}
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.SupplierOrder, error) {
	// FIELD returns 0 for a status outside the listed set, which would sort
	// it before pending; the = 0 term pushes it last, matching StatusOrdinal.
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, supplier_id, status, created_at, status_changed_at
		FROM supplier_orders
		ORDER BY FIELD(status, ?, ?, ?) = 0, FIELD(status, ?, ?, ?), COALESCE(status_changed_at, created_at) DESC`,
		domain.OrderStatusPending, domain.OrderStatusReceived, domain.OrderStatusCanceled,
		domain.OrderStatusPending, domain.OrderStatusReceived, domain.OrderStatusCanceled,
	)
	if err != nil {
		return nil, fmt.Errorf("query supplier orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.SupplierOrder
	index := make(map[string]int)
	for rows.Next() {
		var o domain.SupplierOrder
		var changedAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.SupplierID, &o.Status, &o.CreatedAt, &changedAt); err != nil {
			return nil, fmt.Errorf("scan supplier order: %w", err)
		}
		if changedAt.Valid {
			o.StatusChangedAt = &changedAt.Time
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := m.db.QueryContext(ctx, `
		SELECT supplier_order_id, stock_id, amount FROM supplier_order_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.StockID, &item.Amount); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, itemRows.Err()
}

// --- audit log ---

func (m *MySQLAdapter) ListAuditLog(ctx context.Context) ([]domain.AuditEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, date, type, description FROM audit_log ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Type, &e.Description); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
