package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
)

// ProductsCollection is shared with the live feed source.
const ProductsCollection = "products"

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(ProductsCollection)}
}

type mongoProduct struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	SKU       string             `bson:"sku"`
	Price     float64            `bson:"price"`
	Stock     int                `bson:"stock"`
	Category  string             `bson:"category"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (mp mongoProduct) toDomain() *domain.Product {
	return &domain.Product{
		ID:        mp.ID.Hex(),
		Name:      mp.Name,
		SKU:       mp.SKU,
		Price:     mp.Price,
		Stock:     mp.Stock,
		Category:  mp.Category,
		Status:    domain.ProductStatus(mp.Status),
		CreatedAt: mp.CreatedAt.UTC(),
		UpdatedAt: mp.UpdatedAt.UTC(),
	}
}

// Create inserts a new product document and sets p.ID.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoProduct{
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Stock:     p.Stock,
		Category:  p.Category,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateSKU
		}
		return fmt.Errorf("insert product: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert product: unexpected id type %T", res.InsertedID)
	}
	p.ID = oid.Hex()
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoProduct
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return mp.toDomain(), nil
}

// Update applies the non-nil changes with $set and returns the document after the update.
func (r *ProductRepository) Update(ctx context.Context, id string, changes ports.ProductChanges, updatedAt time.Time) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mp mongoProduct
	err = r.col.FindOneAndUpdate(ctx, updateFilter(oid, changes), bson.M{"$set": setDocument(changes, updatedAt)}, opts).Decode(&mp)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments) && changes.FromStatus != nil:
			// another request moved the status after it was read
			return nil, domain.ErrInvalidTransition
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrProductNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrDuplicateSKU
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrProductNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// List returns all products, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoProduct
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	out := make([]*domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes on the products collection.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func updateFilter(oid primitive.ObjectID, c ports.ProductChanges) bson.M {
	filter := bson.M{"_id": oid}
	if c.FromStatus != nil {
		filter["status"] = string(*c.FromStatus)
	}
	return filter
}

func setDocument(c ports.ProductChanges, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt}
	if c.Name != nil {
		set["name"] = *c.Name
	}
	if c.SKU != nil {
		set["sku"] = *c.SKU
	}
	if c.Price != nil {
		set["price"] = *c.Price
	}
	if c.Stock != nil {
		set["stock"] = *c.Stock
	}
	if c.Category != nil {
		set["category"] = *c.Category
	}
	if c.Status != nil {
		set["status"] = string(*c.Status)
	}
	return set
}
