// ABOUTME: MongoDB implementation of UserStore using the official driver
// ABOUTME: Agent records live in an embedded array updated positionally

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// MongoStore implements UserStore on a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	logger *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection with a
// ping before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	logger := slog.Default().With("component", "store")

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	logger.Info("mongodb store initialized", "database", database)
	return &MongoStore{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
		logger: logger,
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) FindUserByAddress(ctx context.Context, address string) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"address": address}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding user %s: %w", address, err)
	}
	return &user, nil
}

func (s *MongoStore) InsertUser(ctx context.Context, user *User) error {
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("inserting user %s: %w", user.Address, err)
	}
	return nil
}

func (s *MongoStore) AppendAgent(ctx context.Context, address string, agent *AgentRecord) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"address": address},
		bson.M{"$push": bson.M{"agents": agent}})
	if err != nil {
		return fmt.Errorf("appending agent for %s: %w", address, err)
	}
	if res.ModifiedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (s *MongoStore) UpdateAgent(ctx context.Context, address, agentID string, update AgentUpdate) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"address": address, "agents.id": agentID},
		bson.M{"$set": bson.M{
			"agents.$.name":      update.Name,
			"agents.$.nodes":     update.Nodes,
			"agents.$.updatedAt": update.UpdatedAt,
		}})
	if err != nil {
		return fmt.Errorf("updating agent %s for %s: %w", agentID, address, err)
	}
	if res.ModifiedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (s *MongoStore) SetAgentRoom(ctx context.Context, address, agentID, roomID string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"address": address, "agents.id": agentID},
		bson.M{"$set": bson.M{"agents.$.roomId": roomID}})
	if err != nil {
		return fmt.Errorf("setting room for agent %s: %w", agentID, err)
	}
	if res.ModifiedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (s *MongoStore) RemoveAgent(ctx context.Context, address, agentID string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"address": address},
		bson.M{"$pull": bson.M{"agents": bson.M{"id": agentID}}})
	if err != nil {
		return fmt.Errorf("removing agent %s for %s: %w", agentID, address, err)
	}
	if res.ModifiedCount == 0 {
		return ErrNoMatch
	}
	return nil
}
