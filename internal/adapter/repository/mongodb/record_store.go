package mongodb

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// RecordStore keeps each table in its own collection, keyed by posting id.
type RecordStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewRecordStore(client *mongo.Client, dbName string) *RecordStore {
	return &RecordStore{client: client, db: client.Database(dbName)}
}

// clientOptions builds the driver options for the record store. Credentials
// authenticate against the record database unless the URI names another
// authSource.
func clientOptions(cfg *config.MongoConfig, appName string) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if cfg.Username != "" && cfg.Password != "" {
		cred := options.Credential{Username: cfg.Username, Password: cfg.Password}
		if opts.Auth != nil && opts.Auth.AuthSource != "" {
			cred.AuthSource = opts.Auth.AuthSource
		} else {
			cred.AuthSource = cfg.Database
		}
		opts.SetAuth(cred)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	return opts
}

// Dial connects to MongoDB, checks the primary is reachable and makes sure
// the posting table is indexed for newest-first listing.
func Dial(ctx context.Context, cfg *config.MongoConfig, appName, table string) (*RecordStore, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, clientOptions(cfg, appName))
	if err != nil {
		return nil, fmt.Errorf("mongodb.Dial: connect: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb.Dial: ping %s: %w", cfg.Database, err)
	}

	r := NewRecordStore(client, cfg.Database)
	if _, err := r.db.Collection(table).Indexes().CreateOne(dialCtx, createdAtIndex()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb.Dial: index %s: %w", table, err)
	}
	return r, nil
}

func createdAtIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("createdAt_desc"),
	}
}

func (r *RecordStore) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

var _ domain.RecordStore = (*RecordStore)(nil)

type postingDocument struct {
	ID          string             `bson:"_id"`
	Author      string             `bson:"author"`
	ImageURL    string             `bson:"imageurl"`
	Location    string             `bson:"location"`
	Description string             `bson:"description"`
	CreatedAt   primitive.DateTime `bson:"createdAt"`
}

func toPostingDocument(p domain.Posting) postingDocument {
	return postingDocument{
		ID:          p.ID,
		Author:      p.Author,
		ImageURL:    p.ImageURL,
		Location:    p.Location,
		Description: p.Description,
		CreatedAt:   primitive.NewDateTimeFromTime(p.CreatedAt),
	}
}

func toPosting(doc postingDocument) domain.Posting {
	return domain.Posting{
		ID:          doc.ID,
		Author:      doc.Author,
		ImageURL:    doc.ImageURL,
		Location:    doc.Location,
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt.Time().UTC(),
	}
}

// Create upserts p, so re-seeding the same fixture is harmless.
func (r *RecordStore) Create(ctx context.Context, table string, p domain.Posting) error {
	doc := toPostingDocument(p)
	_, err := r.db.Collection(table).ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb.RecordStore.Create %s/%s: %w", table, p.ID, err)
	}
	return nil
}

func (r *RecordStore) FetchAll(ctx context.Context, table string) ([]domain.Posting, error) {
	cur, err := r.db.Collection(table).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb.RecordStore.FetchAll %s: %w", table, err)
	}
	defer cur.Close(ctx)

	var docs []postingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb.RecordStore.FetchAll %s: decode: %w", table, err)
	}
	out := make([]domain.Posting, 0, len(docs))
	for _, d := range docs {
		out = append(out, toPosting(d))
	}
	return out, nil
}

// Delete is a no-op for unknown ids.
func (r *RecordStore) Delete(ctx context.Context, table, id string) error {
	if _, err := r.db.Collection(table).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongodb.RecordStore.Delete %s/%s: %w", table, id, err)
	}
	return nil
}
