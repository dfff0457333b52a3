package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cantinalabs/orderdesk/internal/domain"
	"github.com/cantinalabs/orderdesk/internal/messaging"
	"github.com/cantinalabs/orderdesk/internal/storage"
)

// A user's cart is the single unpaid order row, enforced by a partial unique
// index on (user_id) WHERE NOT paid. Every mutation locks that row for the
// whole read-modify-write, so concurrent calls for one user are serialized
// while different users never contend.
type Engine struct {
	gw       *storage.Gateway
	producer *messaging.Producer
	logger   *slog.Logger
}

// NewEngine builds the cart engine. producer may be nil; finalized orders
// then simply go unannounced.
func NewEngine(gw *storage.Gateway, producer *messaging.Producer, logger *slog.Logger) *Engine {
	return &Engine{gw: gw, producer: producer, logger: logger}
}

// Two concurrent first adds for one user race on the open-order index; the
// loser retries once and lands on the lock path.
const addToCartAttempts = 2

// AddToCart appends the product to the user's open cart, creating the cart
// when none exists, and returns the cart content re-read after commit. A
// missing product fails with ErrProductNotFound and leaves the cart as it
// was.
func (e *Engine) AddToCart(ctx context.Context, userID, productID int64) (domain.CartContent, error) {
	var err error
	for attempt := 0; attempt < addToCartAttempts; attempt++ {
		err = e.gw.WithinTx(ctx, func(tx *sql.Tx) error {
			cost, err := productCost(ctx, tx, productID)
			if err != nil {
				return err
			}

			ord, err := openOrderForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}

			if ord == nil {
				content := domain.CartContent{}.Add(productID, cost)
				return insertOrder(ctx, tx, userID, content)
			}

			// Whole-document rewrite: the JSONB column is replaced, never
			// patched in place.
			content := ord.content.Add(productID, cost)
			return updateContent(ctx, tx, ord.id, content)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		e.logger.Error("failed to add to cart", "error", err, "user_id", userID, "product_id", productID)
		return domain.CartContent{}, err
	}

	snap, err := e.OpenCart(ctx, userID)
	if err != nil {
		return domain.CartContent{}, err
	}
	return snap.Content, nil
}

// OpenCart returns a snapshot of the user's open order with the payable
// total derived at read time from the subtotal and any attached promocode.
func (e *Engine) OpenCart(ctx context.Context, userID int64) (domain.OrderSnapshot, error) {
	var snap domain.OrderSnapshot

	err := e.gw.WithinTx(ctx, func(tx *sql.Tx) error {
		var doc []byte
		err := tx.QueryRowContext(ctx, `
			SELECT o.id, o.content, o.subtotal, COALESCE(p.discount, 0)
			FROM orders o
			LEFT JOIN promocodes p ON p.id = o.promocode_id
			WHERE o.user_id = $1 AND NOT o.paid
		`, userID).Scan(&snap.ID, &doc, &snap.Subtotal, &snap.Discount)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNoOpenOrder
			}
			return storage.Classify(err)
		}

		if err := json.Unmarshal(doc, &snap.Content); err != nil {
			return err
		}

		snap.UserID = userID
		snap.Total = domain.FinalTotal(snap.Subtotal, snap.Discount)
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNoOpenOrder) {
			e.logger.Error("failed to load open cart", "error", err, "user_id", userID)
		}
		return domain.OrderSnapshot{}, err
	}

	return snap, nil
}

// ApplyPromocode attaches an active, in-window promocode to the user's open
// order. Unknown, disabled and out-of-window codes are all
// ErrPromocodeNotFound.
func (e *Engine) ApplyPromocode(ctx context.Context, userID int64, code string) (domain.OrderSnapshot, error) {
	err := e.gw.WithinTx(ctx, func(tx *sql.Tx) error {
		promo, err := promocodeByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if !promo.ValidAt(time.Now().UTC()) {
			return domain.ErrPromocodeNotFound
		}

		ord, err := openOrderForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if ord == nil {
			return domain.ErrNoOpenOrder
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders SET promocode_id = $2, updated_at = now()
			WHERE id = $1
		`, ord.id, promo.ID)
		return storage.Classify(err)
	})
	if err != nil {
		e.logger.Error("failed to apply promocode", "error", err, "user_id", userID, "code", code)
		return domain.OrderSnapshot{}, err
	}

	return e.OpenCart(ctx, userID)
}

// Checkout finalizes the open order: the payable total is computed from the
// subtotal and any promocode discount, persisted, and the order becomes
// paid, which is terminal. The next AddToCart opens a fresh cart.
func (e *Engine) Checkout(ctx context.Context, userID int64) (domain.OrderSnapshot, error) {
	var snap domain.OrderSnapshot

	err := e.gw.WithinTx(ctx, func(tx *sql.Tx) error {
		ord, err := openOrderForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if ord == nil {
			return domain.ErrNoOpenOrder
		}

		discount := decimal.Zero
		if ord.promocodeID.Valid {
			err := tx.QueryRowContext(ctx, `
				SELECT discount FROM promocodes WHERE id = $1
			`, ord.promocodeID.Int64).Scan(&discount)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return storage.Classify(err)
			}
		}

		total := domain.FinalTotal(ord.subtotal, discount)

		_, err = tx.ExecContext(ctx, `
			UPDATE orders SET total_amount = $2, paid = TRUE, updated_at = now()
			WHERE id = $1
		`, ord.id, total)
		if err != nil {
			return storage.Classify(err)
		}

		snap = domain.OrderSnapshot{
			ID:       ord.id,
			UserID:   userID,
			Content:  ord.content,
			Subtotal: ord.subtotal,
			Discount: discount,
			Total:    total,
			Paid:     true,
		}
		return nil
	})
	if err != nil {
		e.logger.Error("failed to checkout", "error", err, "user_id", userID)
		return domain.OrderSnapshot{}, err
	}

	if e.producer != nil {
		event := domain.OrderPaidEvent{
			OrderID:   snap.ID,
			UserID:    snap.UserID,
			Products:  snap.Content.Products,
			Total:     snap.Total,
			Timestamp: time.Now().UTC(),
		}
		if err := e.producer.PublishOrderPaid(ctx, event); err != nil {
			e.logger.Error("failed to publish order paid event", "error", err, "order_id", snap.ID)
		}
	}

	e.logger.Info("order finalized", "order_id", snap.ID, "user_id", userID, "total", snap.Total)
	return snap, nil
}

type openOrder struct {
	id          string
	content     domain.CartContent
	subtotal    decimal.Decimal
	promocodeID sql.NullInt64
}

func productCost(ctx context.Context, tx *sql.Tx, productID int64) (decimal.Decimal, error) {
	var cost decimal.Decimal
	err := tx.QueryRowContext(ctx, `
		SELECT cost FROM products WHERE id = $1
	`, productID).Scan(&cost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, domain.ErrProductNotFound
		}
		return decimal.Decimal{}, storage.Classify(err)
	}
	return cost, nil
}

// openOrderForUpdate locks the user's unpaid order row for the rest of the
// transaction. Returns nil when the user has no open order.
func openOrderForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*openOrder, error) {
	ord := &openOrder{}
	var doc []byte

	err := tx.QueryRowContext(ctx, `
		SELECT id, content, subtotal, promocode_id
		FROM orders
		WHERE user_id = $1 AND NOT paid
		FOR UPDATE
	`, userID).Scan(&ord.id, &doc, &ord.subtotal, &ord.promocodeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.Classify(err)
	}

	if err := json.Unmarshal(doc, &ord.content); err != nil {
		return nil, err
	}
	return ord, nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, userID int64, content domain.CartContent) error {
	doc, err := json.Marshal(content)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, content, subtotal, total_amount, paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, FALSE, now(), now())
	`, uuid.New().String(), userID, doc, content.Total)
	return storage.Classify(err)
}

func updateContent(ctx context.Context, tx *sql.Tx, orderID string, content domain.CartContent) error {
	doc, err := json.Marshal(content)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET content = $2, subtotal = $3, updated_at = now()
		WHERE id = $1
	`, orderID, doc, content.Total)
	return storage.Classify(err)
}

func promocodeByCode(ctx context.Context, tx *sql.Tx, code string) (domain.Promocode, error) {
	var promo domain.Promocode
	var validTo sql.NullTime

	err := tx.QueryRowContext(ctx, `
		SELECT id, code, discount, valid_from, valid_to, is_active
		FROM promocodes
		WHERE code = $1
	`, code).Scan(&promo.ID, &promo.Code, &promo.Discount, &promo.ValidFrom, &validTo, &promo.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Promocode{}, domain.ErrPromocodeNotFound
		}
		return domain.Promocode{}, storage.Classify(err)
	}

	if validTo.Valid {
		promo.ValidTo = &validTo.Time
	}
	return promo, nil
}
