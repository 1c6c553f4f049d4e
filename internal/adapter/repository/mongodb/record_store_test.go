package mongodb

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPostingDocumentRoundTrip(t *testing.T) {
	p := domain.Posting{
		ID:          "42",
		Author:      "maria",
		ImageURL:    "https://cdn.example/42.jpg",
		Location:    "Central station",
		Description: "Black wallet",
		CreatedAt:   time.Date(2024, 2, 3, 10, 30, 0, 0, time.UTC),
	}

	raw, err := bson.Marshal(toPostingDocument(p))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "42", m["_id"])
	assert.Equal(t, "https://cdn.example/42.jpg", m["imageurl"])
	assert.Contains(t, m, "createdAt")

	var doc postingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, p, toPosting(doc))
}

func TestClientOptions(t *testing.T) {
	cfg := &config.MongoConfig{
		URI:            "mongodb://db.internal:27017",
		Username:       "lf",
		Password:       "secret",
		Database:       "lostfound_db",
		ConnectTimeout: 7 * time.Second,
		MaxPoolSize:    20,
	}
	opts := clientOptions(cfg, "lostfound-service")

	require.NotNil(t, opts.AppName)
	assert.Equal(t, "lostfound-service", *opts.AppName)
	require.NotNil(t, opts.ConnectTimeout)
	assert.Equal(t, 7*time.Second, *opts.ConnectTimeout)
	require.NotNil(t, opts.Auth)
	assert.Equal(t, "lf", opts.Auth.Username)
	assert.Equal(t, "lostfound_db", opts.Auth.AuthSource)
	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
	assert.Nil(t, opts.MinPoolSize)
}

func TestClientOptions_URIAuthSourceWins(t *testing.T) {
	cfg := &config.MongoConfig{
		URI:      "mongodb://db.internal:27017/?authSource=admin",
		Username: "lf",
		Password: "secret",
		Database: "lostfound_db",
	}
	opts := clientOptions(cfg, "lostfound-service")
	require.NotNil(t, opts.Auth)
	assert.Equal(t, "admin", opts.Auth.AuthSource)
}

func TestClientOptions_NoCredentials(t *testing.T) {
	opts := clientOptions(&config.MongoConfig{URI: "mongodb://localhost:27017", Database: "x"}, "svc")
	assert.Nil(t, opts.Auth)
}
