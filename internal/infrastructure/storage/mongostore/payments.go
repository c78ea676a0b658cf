package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReservePayment inserts a pending attempt. On a key collision only a failed
// attempt is reopened; anything else is a duplicate.
func (s *Store) ReservePayment(ctx context.Context, p *storage.PaymentAttempt) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Status = storage.PaymentPending
	if p.Attempts == 0 {
		p.Attempts = 1
	}

	amount, err := toDecimal128(p.Amount)
	if err != nil {
		return err
	}
	_, err = s.col(paymentsCollection).InsertOne(ctx, &paymentDoc{
		ID:            p.IdempotencyKey,
		TransactionID: p.TransactionID,
		TenantID:      p.TenantID,
		PayeeID:       p.PayeeID,
		Amount:        amount,
		Currency:      p.Currency,
		Memo:          p.Memo,
		Status:        string(p.Status),
		Attempts:      p.Attempts,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	var reopened paymentDoc
	err = s.col(paymentsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": p.IdempotencyKey, "status": string(storage.PaymentFailed)},
		bson.M{
			"$set": bson.M{"status": string(storage.PaymentPending), "error": "", "updatedAt": now},
			"$inc": bson.M{"attempts": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&reopened)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrDuplicatePayment
	}
	if err != nil {
		return err
	}
	p.Attempts = reopened.Attempts
	p.CreatedAt = reopened.CreatedAt.UTC()
	return nil
}

func (s *Store) CompletePayment(ctx context.Context, key string, status storage.PaymentStatus, reference, errMsg string) error {
	res, err := s.col(paymentsCollection).UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{
		"status":            string(status),
		"providerReference": reference,
		"error":             errMsg,
		"updatedAt":         time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	return requireMatched(res)
}

func (s *Store) ListPayments(ctx context.Context, filter storage.PaymentFilter) ([]storage.PaymentAttempt, error) {
	query := bson.M{}
	if filter.TransactionID != "" {
		query["transactionId"] = filter.TransactionID
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.col(paymentsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []paymentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	payments := make([]storage.PaymentAttempt, 0, len(docs))
	for i := range docs {
		p, err := docs[i].attempt()
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}
