package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spendwise/internal/models"
	"spendwise/internal/store"
)

// Field paths inside a user document.
const (
	fieldUserID         = "userId"
	fieldTransactions   = "transactions"
	fieldTrash          = "trash"
	fieldNotifications  = "notifications"
	fieldRecurrences    = "recuringTransactions"
	fieldAutoCleanTrash = "settings.autoCleanTrash"
)

// DB wraps MongoDB operations on the users collection.
type DB struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        zerolog.Logger
}

var _ store.UserStore = (*DB)(nil)

// New creates a new database connection
func New(ctx context.Context, uri, dbName, collName string, log zerolog.Logger) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Str("database", dbName).Str("collection", collName).Msg("Successfully connected to MongoDB")
	return &DB{
		client:     client,
		collection: client.Database(dbName).Collection(collName),
		log:        log,
	}, nil
}

// NewWithCollection wraps an existing collection. Close is a no-op for such a DB.
func NewWithCollection(coll *mongo.Collection, log zerolog.Logger) *DB {
	return &DB{collection: coll, log: log}
}

// Close closes the database connection
func (db *DB) Close(ctx context.Context) error {
	if db.client == nil {
		return nil
	}
	return db.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique user id index the filters rely on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: fieldUserID, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create userId index: %w", err)
	}
	return nil
}

// LoadRecurrenceProjection returns every user with only the fields the scheduler reads.
//
// Each recurrence is decoded on its own. A malformed definition is reported in
// Undecodable while its siblings load normally, and a document that cannot be
// read at all comes back with LoadErr set.
func (db *DB) LoadRecurrenceProjection(ctx context.Context) ([]store.Projection, error) {
	opts := options.Find().SetProjection(bson.D{
		{Key: "_id", Value: 1},
		{Key: fieldUserID, Value: 1},
		{Key: fieldRecurrences, Value: 1},
		{Key: fieldAutoCleanTrash, Value: 1},
	})
	cursor, err := db.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recurrence projection: %w", err)
	}
	defer cursor.Close(ctx)

	var out []store.Projection
	for cursor.Next(ctx) {
		out = append(out, decodeProjection(cursor.Current))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurrence projection: %w", err)
	}
	db.log.Debug().Int("users", len(out)).Msg("Loaded recurrence projection")
	return out, nil
}

func decodeProjection(raw bson.Raw) store.Projection {
	userID, ok := raw.Lookup(fieldUserID).StringValueOK()
	if !ok || userID == "" {
		docID := raw.Lookup("_id").String()
		return store.Projection{
			UserID:  docID,
			LoadErr: fmt.Errorf("document %s has no string %s", docID, fieldUserID),
		}
	}

	p := store.Projection{UserID: userID, AutoCleanTrash: true}
	if on, ok := raw.Lookup("settings", "autoCleanTrash").BooleanOK(); ok {
		p.AutoCleanTrash = on
	}

	val, err := raw.LookupErr(fieldRecurrences)
	if err != nil || val.Type == bson.TypeNull {
		return p
	}
	arr, ok := val.ArrayOK()
	if !ok {
		p.LoadErr = fmt.Errorf("%s of user %s is a %s, not an array", fieldRecurrences, userID, val.Type)
		return p
	}
	values, err := arr.Values()
	if err != nil {
		p.LoadErr = fmt.Errorf("failed to read %s of user %s: %w", fieldRecurrences, userID, err)
		return p
	}

	for i, v := range values {
		var rec models.Recurrence
		if err := v.Unmarshal(&rec); err != nil {
			p.Undecodable = append(p.Undecodable, store.DecodeFailure{
				RecurrenceID: elementID(v, i),
				Err:          fmt.Errorf("failed to decode recurrence: %w", err),
			})
			continue
		}
		p.Recurrences = append(p.Recurrences, rec)
	}
	return p
}

// elementID names an array element by its string _id, or by position.
func elementID(v bson.RawValue, i int) string {
	if doc, ok := v.DocumentOK(); ok {
		if id, ok := doc.Lookup("_id").StringValueOK(); ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("#%d", i)
}

// PushFilter matches the user document only while the recurrence still satisfies
// the occurrence guard. $elemMatch makes the positional operator in PushUpdate
// address the same array element the guard was evaluated on.
func PushFilter(occ store.Occurrence) bson.M {
	return bson.M{
		fieldUserID: occ.UserID,
		fieldRecurrences: bson.M{"$elemMatch": bson.M{
			"_id":         occ.RecurrenceID,
			"pushedCount": occ.ExpectedPushedCount,
			"count":       bson.M{"$gt": occ.ExpectedPushedCount},
			"$or": bson.A{
				bson.M{"lastPushedAt": nil},
				bson.M{"lastPushedAt": bson.M{"$lt": occ.PushedBefore}},
			},
		}},
	}
}

// PushUpdate advances the matched recurrence and appends the new records.
func PushUpdate(occ store.Occurrence) bson.M {
	return bson.M{
		"$inc": bson.M{fieldRecurrences + ".$.pushedCount": 1},
		"$set": bson.M{fieldRecurrences + ".$.lastPushedAt": occ.PushedAt},
		"$push": bson.M{
			fieldTransactions:  occ.Transaction,
			fieldNotifications: occ.Notification,
		},
	}
}

// ConditionalPushOccurrence applies the occurrence as one atomic UpdateOne.
func (db *DB) ConditionalPushOccurrence(ctx context.Context, occ store.Occurrence) (bool, error) {
	res, err := db.collection.UpdateOne(ctx, PushFilter(occ), PushUpdate(occ))
	if err != nil {
		return false, fmt.Errorf("failed to push occurrence: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// Nothing matched: either another run already pushed, or the record is gone.
	n, err := db.collection.CountDocuments(ctx, bson.M{
		fieldUserID:              occ.UserID,
		fieldRecurrences + "._id": occ.RecurrenceID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check recurrence existence: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("recurrence %s of user %s: %w", occ.RecurrenceID, occ.UserID, store.ErrNotFound)
	}
	return false, nil
}

// PurgeFilter matches the user only while some trashed item is expired at cutoff.
func PurgeFilter(userID string, cutoff time.Time) bson.M {
	return bson.M{
		fieldUserID: userID,
		fieldTrash:  bson.M{"$elemMatch": expiredTrash(cutoff)},
	}
}

// PurgeUpdate pulls every trashed item expired at cutoff.
func PurgeUpdate(cutoff time.Time) bson.M {
	return bson.M{"$pull": bson.M{fieldTrash: expiredTrash(cutoff)}}
}

// expiredTrash selects items created before cutoff. Items with a zero createdAt
// never expire, matching store.TrashExpired.
func expiredTrash(cutoff time.Time) bson.M {
	return bson.M{"createdAt": bson.M{"$gt": time.Time{}, "$lt": cutoff}}
}

// PurgeTrash pulls expired trash in one findAndModify and counts the result from
// the document as it was just before the pull.
func (db *DB) PurgeTrash(ctx context.Context, userID string, cutoff time.Time) (store.TrashPurge, error) {
	opts := options.FindOneAndUpdate().
		SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: fieldTrash, Value: 1}}).
		SetReturnDocument(options.Before)

	var before bson.Raw
	err := db.collection.FindOneAndUpdate(ctx, PurgeFilter(userID, cutoff), PurgeUpdate(cutoff), opts).Decode(&before)
	if err == nil {
		expired, total := countTrash(before, cutoff)
		return store.TrashPurge{Removed: expired, Kept: total - expired}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return store.TrashPurge{}, fmt.Errorf("failed to purge trash for user %s: %w", userID, err)
	}

	// Nothing expired, or the user is gone.
	var doc bson.Raw
	if err := db.findUser(ctx, userID, fieldTrash, &doc); err != nil {
		return store.TrashPurge{}, err
	}
	_, total := countTrash(doc, cutoff)
	return store.TrashPurge{Kept: total}, nil
}

func countTrash(doc bson.Raw, cutoff time.Time) (expired, total int) {
	arr, ok := doc.Lookup(fieldTrash).ArrayOK()
	if !ok {
		return 0, 0
	}
	items, err := arr.Values()
	if err != nil {
		return 0, 0
	}
	for _, item := range items {
		if item, ok := item.DocumentOK(); ok {
			at, _ := item.Lookup("createdAt").TimeOK()
			if store.TrashExpired(models.TrashedTransaction{Transaction: models.Transaction{CreatedAt: at}}, cutoff) {
				expired++
			}
		}
	}
	return expired, len(items)
}

// LoadTransactions returns the active transactions of one user.
func (db *DB) LoadTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	var doc struct {
		Transactions []models.Transaction `bson:"transactions"`
	}
	if err := db.findUser(ctx, userID, fieldTransactions, &doc); err != nil {
		return nil, err
	}
	return doc.Transactions, nil
}

// RemoveFilter matches the user only while every id in keep is still present.
func RemoveFilter(userID string, keep []string) bson.M {
	f := bson.M{fieldUserID: userID}
	if len(keep) > 0 {
		f[fieldTransactions+"._id"] = bson.M{"$all": keep}
	}
	return f
}

// RemoveUpdate pulls the transactions whose id is in remove.
func RemoveUpdate(remove []string) bson.M {
	return bson.M{"$pull": bson.M{fieldTransactions: bson.M{"_id": bson.M{"$in": remove}}}}
}

// RemoveTransactions pulls the remove ids while the keep ids are all still there.
// It returns store.ErrConflict when a kept transaction has disappeared.
func (db *DB) RemoveTransactions(ctx context.Context, userID string, remove, keep []string) (int, error) {
	if len(remove) == 0 {
		return 0, nil
	}
	opts := options.FindOneAndUpdate().
		SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: fieldTransactions + "._id", Value: 1}}).
		SetReturnDocument(options.Before)

	var before struct {
		Transactions []struct {
			ID string `bson:"_id"`
		} `bson:"transactions"`
	}
	err := db.collection.FindOneAndUpdate(ctx, RemoveFilter(userID, keep), RemoveUpdate(remove), opts).Decode(&before)
	if err == nil {
		drop := make(map[string]bool, len(remove))
		for _, id := range remove {
			drop[id] = true
		}
		removed := 0
		for _, tx := range before.Transactions {
			if drop[tx.ID] {
				removed++
			}
		}
		return removed, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("failed to remove transactions for user %s: %w", userID, err)
	}

	n, err := db.collection.CountDocuments(ctx, bson.M{fieldUserID: userID})
	if err != nil {
		return 0, fmt.Errorf("failed to check user existence: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	return 0, fmt.Errorf("transactions of user %s: %w", userID, store.ErrConflict)
}

// ListUserIDs returns the ids of all users.
func (db *DB) ListUserIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: fieldUserID, Value: 1}})
	cursor, err := db.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			UserID string `bson:"userId"`
		}
		if err := cursor.Decode(&doc); err == nil && doc.UserID != "" {
			ids = append(ids, doc.UserID)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return ids, nil
}

func (db *DB) findUser(ctx context.Context, userID, field string, out interface{}) error {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: field, Value: 1}})
	err := db.collection.FindOne(ctx, bson.M{fieldUserID: userID}, opts).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
		}
		return fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	return nil
}
