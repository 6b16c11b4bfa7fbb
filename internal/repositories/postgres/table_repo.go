package postgres

import (
	"context"
	"slices"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yoockh/yootravel/internal/utils"
)

type TableInfo struct {
	Name        string `json:"table_name"`
	ColumnCount int    `json:"column_count"`
	RowCount    int64  `json:"row_count"`
}

type ColumnInfo struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"is_nullable"`
}

// TableRepository is the read-only schema browser behind the dashboard.
type TableRepository interface {
	Tables(ctx context.Context) ([]TableInfo, error)
	Columns(ctx context.Context, table string) ([]ColumnInfo, error)
	Sample(ctx context.Context, table string, n int) ([]map[string]any, error)
}

type tableRepo struct {
	db *gorm.DB
}

func NewTableRepo(db *gorm.DB) TableRepository {
	return &tableRepo{db: db}
}

func (r *tableRepo) Tables(ctx context.Context) ([]TableInfo, error) {
	db := r.db.WithContext(ctx)
	names, err := db.Migrator().GetTables()
	if err != nil {
		return nil, err
	}
	slices.Sort(names)

	out := make([]TableInfo, 0, len(names))
	for _, name := range names {
		cols, err := db.Migrator().ColumnTypes(name)
		if err != nil {
			return nil, err
		}
		var n int64
		if err := db.Raw("SELECT COUNT(*) FROM " + pq.QuoteIdentifier(name)).Scan(&n).Error; err != nil {
			return nil, err
		}
		out = append(out, TableInfo{Name: name, ColumnCount: len(cols), RowCount: n})
	}
	return out, nil
}

func (r *tableRepo) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	if err := r.known(ctx, table); err != nil {
		return nil, err
	}
	cols, err := r.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}
	out := make([]ColumnInfo, 0, len(cols))
	for _, c := range cols {
		nullable, _ := c.Nullable()
		out = append(out, ColumnInfo{Name: c.Name(), DataType: c.DatabaseTypeName(), Nullable: nullable})
	}
	return out, nil
}

func (r *tableRepo) Sample(ctx context.Context, table string, n int) ([]map[string]any, error) {
	if err := r.known(ctx, table); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 5
	}
	var rows []map[string]any
	err := r.db.WithContext(ctx).
		Raw("SELECT * FROM "+pq.QuoteIdentifier(table)+" LIMIT ?", n).
		Scan(&rows).Error
	return rows, err
}

// known rejects names that are not existing tables, so only catalogue
// names ever reach the quoted identifier.
func (r *tableRepo) known(ctx context.Context, table string) error {
	names, err := r.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return err
	}
	if !slices.Contains(names, table) {
		return utils.ErrNotFound
	}
	return nil
}
