package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names. The calls collection is keyed by call SID, the
// zipcode cache by zipcode; signups and messages are append-only.
const (
	collCalls      = "calls"
	collZipcodes   = "legislatorsByZipcode"
	collSignups    = "smsSignups"
	collVoicemails = "messages"
)

// MongoConfig holds Mongo connection settings.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MongoStore is the Mongo-backed Store.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoStore connects to Mongo and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("connected to mongo", zap.String("database", cfg.Database))

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// FindCall implements Store.
func (s *MongoStore) FindCall(ctx context.Context, callSID string) (*CallRecord, error) {
	var record CallRecord
	err := s.db.Collection(collCalls).FindOne(ctx, bson.M{"call_sid": callSID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find call %s: %w", callSID, err)
	}
	return &record, nil
}

// SaveCall implements Store.
func (s *MongoStore) SaveCall(ctx context.Context, record *CallRecord) error {
	_, err := s.db.Collection(collCalls).ReplaceOne(ctx,
		bson.M{"call_sid": record.CallSID},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save call %s: %w", record.CallSID, err)
	}
	return nil
}

// FindZipcode implements Store.
func (s *MongoStore) FindZipcode(ctx context.Context, zipcode string) (*ZipcodeEntry, error) {
	var entry ZipcodeEntry
	err := s.db.Collection(collZipcodes).FindOne(ctx, bson.M{"zipcode": zipcode}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find zipcode %s: %w", zipcode, err)
	}
	return &entry, nil
}

// SaveZipcode implements Store.
func (s *MongoStore) SaveZipcode(ctx context.Context, entry *ZipcodeEntry) error {
	_, err := s.db.Collection(collZipcodes).ReplaceOne(ctx,
		bson.M{"zipcode": entry.Zipcode},
		entry,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save zipcode %s: %w", entry.Zipcode, err)
	}
	return nil
}

// InsertSignup implements Store.
func (s *MongoStore) InsertSignup(ctx context.Context, signup *Signup) error {
	if _, err := s.db.Collection(collSignups).InsertOne(ctx, signup); err != nil {
		return fmt.Errorf("insert signup: %w", err)
	}
	return nil
}

// InsertVoicemail implements Store.
func (s *MongoStore) InsertVoicemail(ctx context.Context, voicemail *Voicemail) error {
	if _, err := s.db.Collection(collVoicemails).InsertOne(ctx, voicemail); err != nil {
		return fmt.Errorf("insert voicemail: %w", err)
	}
	return nil
}

// Close disconnects from Mongo.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
