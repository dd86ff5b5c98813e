package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"vydaje/internal/core"
)

// SQLite is the durable Store and Outbox implementation. Transaction
// deletes are soft (deleted_at) so the outbox can propagate them before the
// row disappears from group snapshots.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) CreateGroup(ctx context.Context, group core.Group, categories []core.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)`,
		group.ID, group.Name, group.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	for i, member := range group.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, position, name) VALUES (?, ?, ?)`,
			group.ID, i, member,
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	for i, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (group_id, position, name, icon) VALUES (?, ?, ?, ?)`,
			group.ID, i, c.Name, c.Icon,
		); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) GetGroup(ctx context.Context, id string) (*core.Group, error) {
	group := core.Group{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, created_at FROM groups WHERE id = ?`, id,
	).Scan(&group.Name, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUnknownGroup
	}
	if err != nil {
		return nil, fmt.Errorf("select group: %w", err)
	}

	if group.Members, err = s.members(ctx, id); err != nil {
		return nil, err
	}
	if group.Transactions, err = s.transactions(ctx, id); err != nil {
		return nil, err
	}
	if group.Settlements, err = s.settlements(ctx, id); err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *SQLite) ListGroups(ctx context.Context) ([]core.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM groups ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	groups := make([]core.Group, 0, len(ids))
	for _, id := range ids {
		g, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, nil
}

func (s *SQLite) DeleteGroup(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUnknownGroup
	}
	return nil
}

func (s *SQLite) SetMembers(ctx context.Context, groupID string, members []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ?`, groupID,
	); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	for i, member := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, position, name) VALUES (?, ?, ?)`,
			groupID, i, member,
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) AppendTransaction(ctx context.Context, groupID string, t core.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var payer, recipient, category, splitMode sql.NullString
	var shares []core.Share
	switch d := t.Detail.(type) {
	case core.ExpenseDetail:
		payer = sql.NullString{String: d.Payer, Valid: true}
		category = sql.NullString{String: d.Category, Valid: true}
		splitMode = sql.NullString{String: string(d.Mode), Valid: true}
		shares = d.Shares
	case core.IncomeDetail:
		recipient = sql.NullString{String: d.Recipient, Valid: true}
	default:
		return fmt.Errorf("unknown transaction kind %q", t.Detail.Kind())
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
		 (id, group_id, kind, description, amount, currency, ledger_amount,
		  occurred_at, note, created_by, payer, recipient, category, split_mode, synced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		t.ID, groupID, string(t.Detail.Kind()), t.Description, t.Amount.String(),
		t.Currency, t.LedgerAmount, t.OccurredAt, t.Note, t.CreatedBy,
		payer, recipient, category, splitMode,
	); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	for i, share := range shares {
		var fixed sql.NullInt64
		if share.Fixed != nil {
			fixed = sql.NullInt64{Int64: *share.Fixed, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_splits (transaction_id, position, member, fixed_amount)
			 VALUES (?, ?, ?, ?)`,
			t.ID, i, share.Member, fixed,
		); err != nil {
			return fmt.Errorf("insert split: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) DeleteTransaction(ctx context.Context, groupID, txID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = ?, synced = 0, sync_error = NULL
		 WHERE id = ? AND group_id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), txID, groupID,
	)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUnknownTransaction
	}
	return nil
}

func (s *SQLite) AppendSettlement(ctx context.Context, groupID string, st core.Settlement) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_member, to_member, amount, recorded_at, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, groupID, st.From, st.To, st.Amount, st.RecordedAt, st.RecordedBy,
	); err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

func (s *SQLite) ClearGroupData(ctx context.Context, groupID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE group_id = ?`, groupID,
	); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM settlements WHERE group_id = ?`, groupID,
	); err != nil {
		return fmt.Errorf("clear settlements: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) ListCategories(ctx context.Context, groupID string) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, icon FROM categories WHERE group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Name, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLite) SaveCategories(ctx context.Context, groupID string, categories []core.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE group_id = ?`, groupID,
	); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for i, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (group_id, position, name, icon) VALUES (?, ?, ?, ?)`,
			groupID, i, c.Name, c.Icon,
		); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) members(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM group_members WHERE group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, name)
	}
	return members, rows.Err()
}

func (s *SQLite) transactions(ctx context.Context, groupID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, description, amount, currency, ledger_amount,
		        occurred_at, note, created_by, payer, recipient, category, split_mode
		 FROM transactions
		 WHERE group_id = ? AND deleted_at IS NULL
		 ORDER BY occurred_at, id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	for i := range transactions {
		if detail, ok := transactions[i].Detail.(core.ExpenseDetail); ok {
			detail.Shares, err = s.splits(ctx, transactions[i].ID)
			if err != nil {
				return nil, err
			}
			transactions[i].Detail = detail
		}
	}
	return transactions, nil
}

func (s *SQLite) splits(ctx context.Context, txID string) ([]core.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member, fixed_amount FROM transaction_splits
		 WHERE transaction_id = ? ORDER BY position`, txID)
	if err != nil {
		return nil, fmt.Errorf("select splits: %w", err)
	}
	defer rows.Close()

	var shares []core.Share
	for rows.Next() {
		var share core.Share
		var fixed sql.NullInt64
		if err := rows.Scan(&share.Member, &fixed); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		if fixed.Valid {
			v := fixed.Int64
			share.Fixed = &v
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}

func (s *SQLite) settlements(ctx context.Context, groupID string) ([]core.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_member, to_member, amount, recorded_at, recorded_by
		 FROM settlements WHERE group_id = ? ORDER BY recorded_at, id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("select settlements: %w", err)
	}
	defer rows.Close()

	var settlements []core.Settlement
	for rows.Next() {
		var st core.Settlement
		if err := rows.Scan(&st.ID, &st.From, &st.To, &st.Amount, &st.RecordedAt, &st.RecordedBy); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		settlements = append(settlements, st)
	}
	return settlements, rows.Err()
}

// PendingSync implements Outbox: oldest unsynced rows first, soft-deleted
// rows included so deletions propagate.
func (s *SQLite) PendingSync(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, deleted_at IS NOT NULL, created_at
		 FROM transactions WHERE synced = 0
		 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending: %w", err)
	}
	defer rows.Close()

	var pending []PendingTransaction
	for rows.Next() {
		var p PendingTransaction
		if err := rows.Scan(&p.TransactionID, &p.GroupID, &p.Deleted, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (s *SQLite) GetTransaction(ctx context.Context, txID string) (*StoredTransaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.group_id, g.name, t.deleted_at IS NOT NULL,
		        t.id, t.kind, t.description, t.amount, t.currency, t.ledger_amount,
		        t.occurred_at, t.note, t.created_by, t.payer, t.recipient, t.category, t.split_mode
		 FROM transactions t JOIN groups g ON g.id = t.group_id
		 WHERE t.id = ?`, txID)

	var stored StoredTransaction
	var kind, amount string
	var payer, recipient, category, splitMode sql.NullString
	t := &stored.Transaction
	err := row.Scan(&stored.GroupID, &stored.GroupName, &stored.Deleted,
		&t.ID, &kind, &t.Description, &amount, &t.Currency, &t.LedgerAmount,
		&t.OccurredAt, &t.Note, &t.CreatedBy, &payer, &recipient, &category, &splitMode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUnknownTransaction
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if err := setDetail(t, kind, payer, recipient, category, splitMode); err != nil {
		return nil, err
	}
	if detail, ok := t.Detail.(core.ExpenseDetail); ok {
		if detail.Shares, err = s.splits(ctx, t.ID); err != nil {
			return nil, err
		}
		t.Detail = detail
	}
	return &stored, nil
}

func (s *SQLite) MarkSynced(ctx context.Context, txID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1, sync_error = NULL WHERE id = ?`, txID,
	); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (s *SQLite) MarkSyncError(ctx context.Context, txID, message string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = ? WHERE id = ?`, message, txID,
	); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var t core.Transaction
	var kind, amount string
	var payer, recipient, category, splitMode sql.NullString
	if err := row.Scan(&t.ID, &kind, &t.Description, &amount, &t.Currency,
		&t.LedgerAmount, &t.OccurredAt, &t.Note, &t.CreatedBy,
		&payer, &recipient, &category, &splitMode); err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if err := setDetail(&t, kind, payer, recipient, category, splitMode); err != nil {
		return nil, err
	}
	return &t, nil
}

func setDetail(t *core.Transaction, kind string, payer, recipient, category, splitMode sql.NullString) error {
	switch core.Kind(kind) {
	case core.KindExpense:
		t.Detail = core.ExpenseDetail{
			Payer:    payer.String,
			Category: category.String,
			Mode:     core.SplitMode(splitMode.String),
		}
	case core.KindIncome:
		t.Detail = core.IncomeDetail{Recipient: recipient.String}
	default:
		return fmt.Errorf("unknown transaction kind %q", kind)
	}
	return nil
}
