package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pageza/smartcooking/backend/internal/database"
	"github.com/pageza/smartcooking/backend/internal/models"
)

// NewMongoStore builds a Store backed by MongoDB collections
func NewMongoStore(db *mongo.Database) *Store {
	users := db.Collection(database.UsersCollection)
	return &Store{
		Users:    &mongoUsers{coll: users},
		Recipes:  &mongoRecipes{coll: db.Collection(database.RecipesCollection)},
		Saved:    &mongoSaved{coll: db.Collection(database.SavedRecipesCollection)},
		Payments: &mongoPayments{coll: db.Collection(database.PaymentsCollection), users: users},
		ping: func(ctx context.Context) error {
			return database.MongoHealthCheck(ctx, db.Client())
		},
	}
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

type mongoUsers struct {
	coll *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, user *models.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", translateMongo(err))
	}
	return nil
}

func (r *mongoUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *mongoUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateMongo(err)
	}
	if user.Plan == "" {
		user.Plan = models.PlanFree
	}
	return &user, nil
}

func (r *mongoUsers) ResetMonthlyUsage(ctx context.Context, id, month string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "month_reset": bson.M{"$ne": month}},
		bson.M{"$set": bson.M{"recipes_generated_this_month": 0, "month_reset": month}},
	)
	if err != nil {
		return false, fmt.Errorf("reset monthly usage: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *mongoUsers) IncrementMonthlyUsage(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$inc": bson.M{"recipes_generated_this_month": 1}},
	)
	if err != nil {
		return fmt.Errorf("increment monthly usage: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoRecipes struct {
	coll *mongo.Collection
}

func (r *mongoRecipes) Create(ctx context.Context, recipe *models.Recipe) error {
	if _, err := r.coll.InsertOne(ctx, recipe); err != nil {
		return fmt.Errorf("create recipe: %w", translateMongo(err))
	}
	return nil
}

func (r *mongoRecipes) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&recipe); err != nil {
		return nil, translateMongo(err)
	}
	return &recipe, nil
}

func (r *mongoRecipes) ListByUser(ctx context.Context, userID string, limit int) ([]models.Recipe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	recipes := []models.Recipe{}
	if err := cur.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	return recipes, nil
}

type mongoSaved struct {
	coll *mongo.Collection
}

func (r *mongoSaved) Create(ctx context.Context, saved *models.SavedRecipe) error {
	if _, err := r.coll.InsertOne(ctx, saved); err != nil {
		return fmt.Errorf("create saved recipe: %w", translateMongo(err))
	}
	return nil
}

func (r *mongoSaved) Exists(ctx context.Context, recipeID, userID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"recipe_id": recipeID, "user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check saved recipe: %w", err)
	}
	return n > 0, nil
}

func (r *mongoSaved) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete saved recipe: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSaved) ListByUser(ctx context.Context, userID string, limit int) ([]models.SavedRecipe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "saved_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list saved recipes: %w", err)
	}
	saved := []models.SavedRecipe{}
	if err := cur.All(ctx, &saved); err != nil {
		return nil, fmt.Errorf("decode saved recipes: %w", err)
	}
	return saved, nil
}

type mongoPayments struct {
	coll  *mongo.Collection
	users *mongo.Collection
}

func (r *mongoPayments) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	if _, err := r.coll.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("create payment transaction: %w", translateMongo(err))
	}
	return nil
}

func (r *mongoPayments) GetBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.coll.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&tx); err != nil {
		return nil, translateMongo(err)
	}
	return &tx, nil
}

// ConfirmPaid relies on the single-document atomicity of findAndModify: only
// one caller can observe the pending document and flip it. If the plan
// upgrade then fails the transition is rolled back so a later delivery can retry.
func (r *mongoPayments) ConfirmPaid(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	var before models.PaymentTransaction
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"session_id": sessionID, "status": models.TransactionPending},
		bson.M{"$set": bson.M{
			"status":         models.TransactionComplete,
			"payment_status": models.PaymentStatusPaid,
			"updated_at":     at,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := r.GetBySessionID(ctx, sessionID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("complete payment transaction: %w", err)
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"id": before.UserID},
		bson.M{"$set": bson.M{"plan": models.PlanUnlimited, "upgraded_at": at}},
	)
	if err == nil && res.MatchedCount == 0 {
		err = ErrNotFound
	}
	if err != nil {
		_, rollbackErr := r.coll.UpdateOne(ctx,
			bson.M{"session_id": sessionID},
			bson.M{"$set": bson.M{"status": before.Status, "payment_status": before.PaymentStatus, "updated_at": before.UpdatedAt}},
		)
		return false, errors.Join(fmt.Errorf("upgrade user plan %s: %w", before.UserID, err), rollbackErr)
	}
	return true, nil
}

func (r *mongoPayments) MarkExpired(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "status": models.TransactionPending},
		bson.M{"$set": bson.M{
			"status":         models.TransactionExpired,
			"payment_status": models.PaymentStatusFailed,
			"updated_at":     at,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("expire payment transaction: %w", err)
	}
	return res.ModifiedCount == 1, nil
}
