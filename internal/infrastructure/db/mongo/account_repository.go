package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ballotbox/account-service/internal/core/domain"
)

const accountCollection = "accounts"

// MongoAccountRepository is the credential store. Failed-attempt counting
// runs as a server-side $inc so concurrent failures serialize per document;
// the remaining writes are whole-document replaces keyed by username.
type MongoAccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{coll: db.Collection(accountCollection)}
}

// EnsureIndexes creates the unique indexes backing the username and email
// global-uniqueness invariants. Call once at startup.
func (r *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

type mongoReset struct {
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type mongoAccount struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Username      string             `bson:"username"`
	Email         string             `bson:"email"`
	PasswordHash  string             `bson:"password_hash"`
	LoginAttempts int                `bson:"login_attempts"`
	LockUntil     *time.Time         `bson:"lock_until,omitempty"`
	Reset         *mongoReset        `bson:"reset,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (r *MongoAccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	res, err := r.coll.InsertOne(ctx, toDocument(account))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKind(err)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *account
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *MongoAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"username": account.Username}, toDocument(account))
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// IncrementLoginAttempts bumps the counter with a single FindOneAndUpdate,
// so two failed logins racing on the same account each get their own value
// back and neither increment is lost.
func (r *MongoAccountRepository) IncrementLoginAttempts(ctx context.Context, username string) (int, error) {
	update := bson.M{
		"$inc":         bson.M{"login_attempts": 1},
		"$currentDate": bson.M{"updated_at": true},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoAccount
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"username": username}, update, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("increment login attempts: %w", err)
	}
	return doc.LoginAttempts, nil
}

func (r *MongoAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": username}, domain.ErrAccountNotFound)
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email}, domain.ErrAccountNotFound)
}

// FindByValidResetToken matches on exact token with a strictly-future expiry,
// so consumed and expired tokens are indistinguishable from never-issued ones.
func (r *MongoAccountRepository) FindByValidResetToken(ctx context.Context, token string, now time.Time) (*domain.Account, error) {
	filter := bson.M{
		"reset.token":      token,
		"reset.expires_at": bson.M{"$gt": now},
	}
	return r.findOne(ctx, filter, domain.ErrInvalidResetToken)
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.M, missing error) (*domain.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, missing
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return toDomain(&doc), nil
}

func toDocument(a *domain.Account) mongoAccount {
	doc := mongoAccount{
		Username:      a.Username,
		Email:         a.Email,
		PasswordHash:  a.PasswordHash,
		LoginAttempts: a.LoginAttempts,
		LockUntil:     a.LockUntil,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Reset != nil {
		doc.Reset = &mongoReset{Token: a.Reset.Token, ExpiresAt: a.Reset.ExpiresAt}
	}
	return doc
}

func toDomain(doc *mongoAccount) *domain.Account {
	a := &domain.Account{
		ID:            doc.ID.Hex(),
		Username:      doc.Username,
		Email:         doc.Email,
		PasswordHash:  doc.PasswordHash,
		LoginAttempts: doc.LoginAttempts,
		LockUntil:     doc.LockUntil,
		CreatedAt:     doc.CreatedAt.UTC(),
		UpdatedAt:     doc.UpdatedAt.UTC(),
	}
	if doc.Reset != nil {
		a.Reset = &domain.PasswordReset{Token: doc.Reset.Token, ExpiresAt: doc.Reset.ExpiresAt.UTC()}
	}
	return a
}

// duplicateKind decides which unique index a duplicate-key error came from.
// The index name appears in the server message; username is the fallback.
func duplicateKind(err error) error {
	if strings.Contains(err.Error(), "email_unique") {
		return domain.ErrEmailTaken
	}
	return domain.ErrUsernameTaken
}
