package mongostore

import (
	"context"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveTransaction upserts a transaction. The filter only matches a stored
// copy of equal or lower rank; when a higher-ranked copy exists the upsert
// collides on _id and the write is reported as not applied.
func (s *Store) SaveTransaction(ctx context.Context, tx *storage.TransactionRecord) (bool, error) {
	if tx.ID == "" {
		tx.ID = matcher.TransactionID(tx.Date, tx.Amount, tx.Description)
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now

	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return false, err
	}

	filter := bson.M{"_id": tx.ID, "statusRank": bson.M{"$lte": tx.Status.Rank()}}
	update := bson.M{
		"$set": bson.M{
			"tenantId":          tx.TenantID,
			"tenantName":        tx.TenantName,
			"confidence":        string(tx.Confidence),
			"status":            string(tx.Status),
			"statusRank":        tx.Status.Rank(),
			"payeeId":           tx.PayeeID,
			"payeeMinted":       tx.PayeeMinted,
			"fallbackExhausted": tx.FallbackExhausted,
			"reason":            tx.Reason,
			"runId":             tx.RunID,
			"updatedAt":         tx.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"date":        rental.Date(tx.Date),
			"amount":      amount,
			"amountText":  tx.AmountText,
			"currency":    tx.Currency,
			"description": tx.Description,
			"createdAt":   tx.CreatedAt,
		},
	}
	_, err = s.col(transactionsCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*storage.TransactionRecord, error) {
	var doc transactionDoc
	if err := s.col(transactionsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.record()
}

func (s *Store) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]storage.TransactionRecord, error) {
	query := bson.M{}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		query["status"] = bson.M{"$in": statuses}
	}
	if filter.TenantID != "" {
		query["tenantId"] = filter.TenantID
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := s.col(transactionsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]storage.TransactionRecord, 0, len(docs))
	for i := range docs {
		r, err := docs[i].record()
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, nil
}

func (s *Store) AppendTransition(ctx context.Context, t *storage.Transition) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	doc := &transitionDoc{
		ID:            primitive.NewObjectID(),
		TransactionID: t.TransactionID,
		From:          string(t.From),
		To:            string(t.To),
		Confidence:    string(t.Confidence),
		TenantID:      t.TenantID,
		Reason:        t.Reason,
		RunID:         t.RunID,
		CreatedAt:     t.CreatedAt,
	}
	if _, err := s.col(transitionsCollection).InsertOne(ctx, doc); err != nil {
		return err
	}
	t.ID = doc.ID.Hex()
	return nil
}

func (s *Store) ListTransitions(ctx context.Context, transactionID string) ([]storage.Transition, error) {
	// ObjectIDs grow monotonically per process, so _id order is insertion order
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.col(transitionsCollection).Find(ctx, bson.M{"transactionId": transactionID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []transitionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	transitions := make([]storage.Transition, 0, len(docs))
	for i := range docs {
		transitions = append(transitions, docs[i].transition())
	}
	return transitions, nil
}

func (s *Store) StartMatchRun(ctx context.Context, kind string) (*storage.MatchRun, error) {
	run := &storage.MatchRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    storage.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.col(runsCollection).InsertOne(ctx, &matchRunDoc{
		ID:        run.ID,
		Kind:      run.Kind,
		Status:    run.Status,
		StartedAt: run.StartedAt,
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) CompleteMatchRun(ctx context.Context, run *storage.MatchRun) error {
	if run.Status == "" || run.Status == storage.RunStatusRunning {
		run.Status = storage.RunStatusCompleted
	}
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	res, err := s.col(runsCollection).UpdateOne(ctx, bson.M{"_id": run.ID}, bson.M{"$set": bson.M{
		"status":           run.Status,
		"completedAt":      *run.CompletedAt,
		"transactionCount": run.TransactionCount,
		"matched":          run.Matched,
		"review":           run.Review,
		"failed":           run.Failed,
		"skipped":          run.Skipped,
		"directoryError":   run.DirectoryError,
		"error":            run.Error,
	}})
	if err != nil {
		return err
	}
	return requireMatched(res)
}

func (s *Store) GetMatchRun(ctx context.Context, id string) (*storage.MatchRun, error) {
	var doc matchRunDoc
	if err := s.col(runsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	run := doc.run()
	return &run, nil
}

func (s *Store) ListMatchRuns(ctx context.Context, limit int) ([]storage.MatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.col(runsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []matchRunDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	runs := make([]storage.MatchRun, 0, len(docs))
	for i := range docs {
		runs = append(runs, docs[i].run())
	}
	return runs, nil
}
