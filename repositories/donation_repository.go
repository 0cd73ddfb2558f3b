package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/amani-foundation/donations-backend/config"
	"github.com/amani-foundation/donations-backend/models"
)

// ErrDonationNotFound is returned when no donation matches the reference.
var ErrDonationNotFound = errors.New("donation not found")

// DonationRepository is the persistence boundary for donations. Controllers
// depend on this interface; tests substitute an in-memory fake.
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	FindByReference(ctx context.Context, reference string) (*models.Donation, error)
	UpdateStatus(ctx context.Context, reference, status string) error
	MarkVerified(ctx context.Context, reference, status string, paymentData *models.PaymentData) error
}

// MongoDonationRepository stores donations in the donations collection.
type MongoDonationRepository struct {
	collection *mongo.Collection
}

func NewDonationRepository(db *mongo.Client) *MongoDonationRepository {
	return &MongoDonationRepository{
		collection: config.GetCollection(db, "donations"),
	}
}

func (r *MongoDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID.IsZero() {
		donation.ID = primitive.NewObjectID()
	}
	now := time.Now()
	donation.CreatedAt = now
	donation.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, donation)
	return err
}

func (r *MongoDonationRepository) FindByReference(ctx context.Context, reference string) (*models.Donation, error) {
	var donation models.Donation
	err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&donation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (r *MongoDonationRepository) UpdateStatus(ctx context.Context, reference, status string) error {
	filter := bson.M{"reference": reference}
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrDonationNotFound
	}
	return nil
}

func (r *MongoDonationRepository) MarkVerified(ctx context.Context, reference, status string, paymentData *models.PaymentData) error {
	filter := bson.M{"reference": reference}
	set := bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}
	if paymentData != nil {
		set["paymentData"] = paymentData
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrDonationNotFound
	}
	return nil
}
