package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection         = "users"
	subscriptionsCollection = "subscriptions"
)

// Mongo implements UserStore and SubscriptionStore on a MongoDB database.
// All writes are per-document atomic merge operations ($set/$inc/$setOnInsert).
type Mongo struct {
	users     *mongo.Collection
	subs      *mongo.Collection
	freeLimit int
}

// NewMongo creates the MongoDB-backed store. freeLimit is the free tier's
// monthly summary allowance used for lazily created accounts.
func NewMongo(db *mongo.Database, freeLimit int) *Mongo {
	if db == nil {
		panic("store.NewMongo: nil database")
	}
	return &Mongo{
		users:     db.Collection(usersCollection),
		subs:      db.Collection(subscriptionsCollection),
		freeLimit: freeLimit,
	}
}

func (m *Mongo) EnsureUser(ctx context.Context, userID int64) (*UserAccount, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"last_seen": now},
		"$setOnInsert": bson.M{
			"created_at":  now,
			"preferences": DefaultPreferences(),
			"premium":     FreePremium(m.freeLimit),
		},
	}

	var account UserAccount
	err := m.users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&account)
	if err != nil {
		return nil, errors.Join(ErrFailedToWriteUser, err)
	}
	return &account, nil
}

func (m *Mongo) GetUser(ctx context.Context, userID int64) (*UserAccount, error) {
	var account UserAccount
	err := m.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrFailedToReadUser, err)
	}
	return &account, nil
}

func (m *Mongo) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	account, err := m.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &account.Preferences, nil
}

func (m *Mongo) UpdatePreferences(ctx context.Context, userID int64, prefs Preferences) error {
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"preferences": prefs}})
	if err != nil {
		return errors.Join(ErrFailedToWriteUser, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *Mongo) GetPremium(ctx context.Context, userID int64) (*Premium, error) {
	account, err := m.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &account.Premium, nil
}

func (m *Mongo) UpdatePremium(ctx context.Context, userID int64, premium Premium) error {
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"premium": premium}})
	if err != nil {
		return errors.Join(ErrFailedToWriteUser, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *Mongo) GetMonthlyUsage(ctx context.Context, userID int64) (*MonthlyUsage, error) {
	account, err := m.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	usage := account.Stats.Monthly[CurrentMonthKey()]
	return &usage, nil
}

func (m *Mongo) IncrementUsage(ctx context.Context, userID int64, isAudio bool, processingTime float64) error {
	month := CurrentMonthKey()
	inc := bson.M{
		"stats.monthly." + month + ".summaries_used": 1,
		"premium.summaries_used":                     1,
	}
	if isAudio {
		inc["stats.monthly."+month+".audio_summaries"] = 1
	}
	if processingTime > 0 {
		inc["stats.monthly."+month+".total_processing_time"] = processingTime
	}

	res, err := m.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$inc": inc})
	if err != nil {
		return errors.Join(ErrFailedToWriteUser, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *Mongo) StoreSubscription(ctx context.Context, rec SubscriptionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := m.subs.ReplaceOne(ctx, bson.M{"_id": rec.SubscriptionID}, rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrFailedToWriteSubs, err)
	}
	return nil
}

func (m *Mongo) GetUserSubscription(ctx context.Context, userID int64) (*SubscriptionRecord, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": bson.A{StatusActive, StatusTrialing}},
	}

	var rec SubscriptionRecord
	err := m.subs.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrFailedToReadSubs, err)
	}
	return &rec, nil
}

func (m *Mongo) MarkCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	now := time.Now().UTC()
	res, err := m.subs.UpdateOne(ctx, bson.M{"_id": subscriptionID}, bson.M{
		"$set": bson.M{
			"cancel_at_period_end": true,
			"canceled_at":          now,
		},
	})
	if err != nil {
		return errors.Join(ErrFailedToWriteSubs, err)
	}
	if res.MatchedCount == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (m *Mongo) ListSubscriptionHistory(ctx context.Context, userID int64) ([]SubscriptionRecord, error) {
	cursor, err := m.subs.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, errors.Join(ErrFailedToReadSubs, err)
	}

	var records []SubscriptionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, errors.Join(ErrFailedToReadSubs, err)
	}
	return records, nil
}
