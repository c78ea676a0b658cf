// Package mongostore is the MongoDB implementation of storage.Repository.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultDatabase is used when no database name is configured
const DefaultDatabase = "rentlink"

// Store provides MongoDB-backed access to all records
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Compile-time check that Store implements Repository
var _ storage.Repository = (*Store)(nil)

// NewStore connects to MongoDB, verifies the connection and ensures indexes.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	if dbName == "" {
		dbName = DefaultDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		tenantsCollection: {
			{Keys: bson.D{{Key: "emailLower", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "nameLower", Value: 1}}},
		},
		accountsCollection:     {{Keys: bson.D{{Key: "tenantId", Value: 1}}}},
		remindersCollection:    {{Keys: bson.D{{Key: "dueDate", Value: 1}}}},
		transactionsCollection: {{Keys: bson.D{{Key: "status", Value: 1}, {Key: "date", Value: 1}}}},
		transitionsCollection:  {{Keys: bson.D{{Key: "transactionId", Value: 1}}}},
		runsCollection:         {{Keys: bson.D{{Key: "startedAt", Value: -1}}}},
		paymentsCollection:     {{Keys: bson.D{{Key: "transactionId", Value: 1}}}},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}

func requireMatched(res *mongo.UpdateResult) error {
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateTenant(ctx context.Context, t *rental.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	doc, err := newTenantDoc(t)
	if err != nil {
		return err
	}
	_, err = s.col(tenantsCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetTenant(ctx context.Context, id string) (*rental.Tenant, error) {
	var doc tenantDoc
	if err := s.col(tenantsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.tenant()
}

func (s *Store) ListTenants(ctx context.Context) ([]rental.Tenant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "nameLower", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col(tenantsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []tenantDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	tenants := make([]rental.Tenant, 0, len(docs))
	for i := range docs {
		t, err := docs[i].tenant()
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, nil
}

func (s *Store) UpdateTenantStatus(ctx context.Context, id string, status rental.PaymentStatus) error {
	res, err := s.col(tenantsCollection).UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"paymentStatus": string(status), "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	return requireMatched(res)
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	res, err := s.col(tenantsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, a *rental.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.col(accountsCollection).InsertOne(ctx, &accountDoc{
		ID:        a.ID,
		TenantID:  a.TenantID,
		Reference: a.Reference,
		Status:    string(a.Status),
		PayeeID:   a.PayeeID,
		CreatedAt: a.CreatedAt,
	})
	return err
}

func (s *Store) findAccounts(ctx context.Context, filter bson.M) ([]rental.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col(accountsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	accounts := make([]rental.Account, 0, len(docs))
	for i := range docs {
		accounts = append(accounts, docs[i].account())
	}
	return accounts, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]rental.Account, error) {
	return s.findAccounts(ctx, bson.M{})
}

func (s *Store) ListAccountsByTenant(ctx context.Context, tenantID string) ([]rental.Account, error) {
	return s.findAccounts(ctx, bson.M{"tenantId": tenantID})
}

func (s *Store) CreateReminder(ctx context.Context, r *rental.Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.col(remindersCollection).InsertOne(ctx, newReminderDoc(r))
	return err
}

func (s *Store) GetReminder(ctx context.Context, id string) (*rental.Reminder, error) {
	var doc reminderDoc
	if err := s.col(remindersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.reminder()
}

func (s *Store) ListReminders(ctx context.Context) ([]rental.Reminder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col(remindersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []reminderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	reminders := make([]rental.Reminder, 0, len(docs))
	for i := range docs {
		r, err := docs[i].reminder()
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *r)
	}
	return reminders, nil
}

func (s *Store) MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	res, err := s.col(remindersCollection).UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastSent": sentAt.UTC()}})
	if err != nil {
		return err
	}
	return requireMatched(res)
}
