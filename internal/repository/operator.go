package repository

import (
	"context"
	"errors"
	"time"

	"fleet-console/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type OperatorRepository struct {
	collection *mongo.Collection
}

func NewOperatorRepository(db *mongo.Database) *OperatorRepository {
	return &OperatorRepository{
		collection: db.Collection("operators"),
	}
}

func (r *OperatorRepository) Create(operator *models.Operator) (*models.Operator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	operator.CreatedAt = time.Now()
	operator.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, operator)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.New("username or email already exists")
		}
		return nil, err
	}

	operator.ID = result.InsertedID.(primitive.ObjectID)
	return operator, nil
}

func (r *OperatorRepository) FindByID(id string) (*models.Operator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid operator ID")
	}

	var operator models.Operator
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&operator)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("operator not found")
		}
		return nil, err
	}

	return &operator, nil
}

func (r *OperatorRepository) FindByUsername(username string) (*models.Operator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var operator models.Operator
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&operator)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("operator not found")
		}
		return nil, err
	}

	return &operator, nil
}

func (r *OperatorRepository) Count() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *OperatorRepository) UpdateLastLogin(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid operator ID")
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"last_login": now,
			"updated_at": now,
		},
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	return err
}
