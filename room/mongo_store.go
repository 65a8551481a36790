package room

import (
	"context"
	"errors"

	"hangman/common/database"
	"hangman/common/log"
	"hangman/game"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const gamesCollection = "games"

// MongoStore keeps one {roomID, gameState} document per room in the games
// collection, the same record shape the snapshot endpoint serves.
type MongoStore struct {
	mongo *database.MongoManager
}

func NewMongoStore(mongo *database.MongoManager) *MongoStore {
	return &MongoStore{mongo: mongo}
}

type gameDocument struct {
	RoomID    string       `bson:"roomID"`
	GameState game.Session `bson:"gameState"`
}

func (s *MongoStore) Load(ctx context.Context, roomID string) (*game.Session, error) {
	collection := s.mongo.Db.Collection(gamesCollection)

	var doc gameDocument
	err := collection.FindOne(ctx, bson.M{"roomID": roomID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		log.Error("room %s load failed: %v", roomID, err)
		return nil, ErrNotFound
	}
	return &doc.GameState, nil
}

func (s *MongoStore) Save(ctx context.Context, roomID string, session *game.Session) error {
	collection := s.mongo.Db.Collection(gamesCollection)

	_, err := collection.UpdateOne(ctx,
		bson.M{"roomID": roomID},
		bson.M{"$set": bson.M{"roomID": roomID, "gameState": session}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Error("room %s save failed: %v", roomID, err)
	}
	return err
}

func (s *MongoStore) Delete(ctx context.Context, roomID string) error {
	collection := s.mongo.Db.Collection(gamesCollection)

	_, err := collection.DeleteOne(ctx, bson.M{"roomID": roomID})
	if err != nil {
		log.Error("room %s delete failed: %v", roomID, err)
	}
	return err
}

func (s *MongoStore) Exists(ctx context.Context, roomID string) (bool, error) {
	collection := s.mongo.Db.Collection(gamesCollection)

	count, err := collection.CountDocuments(ctx, bson.M{"roomID": roomID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
