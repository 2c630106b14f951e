package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/OrderBridge/internal/domain"
)

// InvoiceRepo — репозиторий строк инвойсов (таблица invoice_data).
type InvoiceRepo struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepo создаёт новый InvoiceRepo.
func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

// ListUnpublished возвращает неопубликованные строки с датой документа
// не раньше начала дня windowDays дней назад.
func (r *InvoiceRepo) ListUnpublished(ctx context.Context, windowDays int) ([]domain.InvoiceRecord, error) {
	query := `
		SELECT ext_doc_no, line_no, cust_no, doc_date,
		       COALESCE(sp_code, ''), COALESCE(shipto_code, ''), item_no,
		       qty, COALESCE(location, ''), COALESCE(suom, ''),
		       unit_price, total_header_amount, line_amount, total_header_qty,
		       COALESCE(type, ''), COALESCE(cu_invoice_no, ''), COALESCE(cu_no, ''),
		       signing_time, published
		FROM invoice_data
		WHERE published = false
		  AND doc_date >= date_trunc('day', now()) - make_interval(days => $1)
		ORDER BY ext_doc_no, line_no
	`
	rows, err := r.pool.Query(ctx, query, windowDays)
	if err != nil {
		return nil, fmt.Errorf("list unpublished invoices: %w", err)
	}
	defer rows.Close()

	var records []domain.InvoiceRecord
	for rows.Next() {
		rec, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkPublished помечает все строки документов extDocNos опубликованными
// одним UPDATE. Возвращает число обновлённых строк.
func (r *InvoiceRepo) MarkPublished(ctx context.Context, extDocNos []string) (int64, error) {
	if len(extDocNos) == 0 {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE invoice_data SET published = true WHERE ext_doc_no = ANY($1)
	`, extDocNos)
	if err != nil {
		return 0, fmt.Errorf("mark invoices published: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanInvoice(rows pgx.Rows) (domain.InvoiceRecord, error) {
	var rec domain.InvoiceRecord
	err := rows.Scan(
		&rec.ExtDocNo,
		&rec.LineNo,
		&rec.CustNo,
		&rec.Date,
		&rec.SPCode,
		&rec.ShiptoCode,
		&rec.ItemNo,
		&rec.Qty,
		&rec.Location,
		&rec.SUOM,
		&rec.UnitPrice,
		&rec.TotalHeaderAmount,
		&rec.LineAmount,
		&rec.TotalHeaderQty,
		&rec.Type,
		&rec.CUInvoiceNo,
		&rec.CUNo,
		&rec.SigningTime,
		&rec.Published,
	)
	if err != nil {
		return domain.InvoiceRecord{}, fmt.Errorf("scan invoice: %w", err)
	}
	return rec, nil
}
