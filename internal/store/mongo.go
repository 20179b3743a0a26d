package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements DocumentStore on a MongoDB database. Documents
// are addressed by string _id so ids generated by the services survive
// round trips unchanged.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

func (s *MongoStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	var data bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&data)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, &TransientError{Err: err}
	}
	return Document{ID: id, Data: data}, nil
}

func (s *MongoStore) QueryDocuments(ctx context.Context, collection string, filters []Filter, orderBy string) ([]Document, error) {
	query, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}

	findOptions := options.Find()
	if orderBy != "" {
		findOptions.SetSort(bson.D{{Key: orderBy, Value: 1}})
	}

	cursor, err := s.db.Collection(collection).Find(ctx, query, findOptions)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var data bson.M
		if err := cursor.Decode(&data); err != nil {
			return nil, &TransientError{Err: err}
		}
		id, _ := data["_id"].(string)
		docs = append(docs, Document{ID: id, Data: data})
	}
	if err := cursor.Err(); err != nil {
		return nil, &TransientError{Err: err}
	}
	return docs, nil
}

func (s *MongoStore) SetDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = id

	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &TransientError{Err: err}
	}
	return nil
}

func (s *MongoStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return &TransientError{Err: err}
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AtomicBatch runs every write inside one MongoDB transaction.
func (s *MongoStore) AtomicBatch(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return &TransientError{Err: err}
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		for _, op := range ops {
			if op.Replace {
				if err := s.SetDocument(sc, op.Collection, op.ID, op.Fields); err != nil {
					return nil, err
				}
				continue
			}
			if err := s.UpdateDocument(sc, op.Collection, op.ID, op.Fields); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || IsTransient(err) {
			return err
		}
		return &TransientError{Err: err}
	}
	return nil
}

func buildFilter(filters []Filter) (bson.M, error) {
	query := bson.M{}
	for _, f := range filters {
		switch f.Op {
		case "==":
			query[f.Field] = f.Value
		case "in":
			query[f.Field] = bson.M{"$in": f.Value}
		case ">":
			query[f.Field] = bson.M{"$gt": f.Value}
		case ">=":
			query[f.Field] = bson.M{"$gte": f.Value}
		case "<":
			query[f.Field] = bson.M{"$lt": f.Value}
		case "<=":
			query[f.Field] = bson.M{"$lte": f.Value}
		default:
			return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	return query, nil
}
