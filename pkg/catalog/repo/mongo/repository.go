package mongo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

// Collection names
const (
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
	UsersCollection      = "users"
	LogsCollection       = "logs"
)

// DefaultTimeout bounds each single-document operation.
const DefaultTimeout = 5 * time.Second

// Repository implements catalog.Repository on MongoDB. Queries are translated
// to server-side filters and patches to $set/$unset updates.
type Repository struct {
	products   *mongo.Collection
	categories *mongo.Collection
	users      *mongo.Collection
	logs       *mongo.Collection
	timeout    time.Duration
	now        func() time.Time
}

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// New creates a repository over the catalog collections of db.
func New(db *mongo.Database) *Repository {
	return &Repository{
		products:   db.Collection(ProductsCollection),
		categories: db.Collection(CategoriesCollection),
		users:      db.Collection(UsersCollection),
		logs:       db.Collection(LogsCollection),
		timeout:    DefaultTimeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the indexes the repository relies on. The unique
// username index backs the conditional user create.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: fieldUsername, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return storageErr(UsersCollection, "", "create_index", err)
	}

	_, err = r.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: catalog.FieldCategoryID, Value: 1}, {Key: fieldIsDeleted, Value: 1}},
		Options: options.Index().SetName("category_status"),
	})
	if err != nil {
		return storageErr(ProductsCollection, "", "create_index", err)
	}

	_, err = r.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: fieldSubjectID, Value: 1}}, Options: options.Index().SetName("subject")},
		{Keys: bson.D{{Key: fieldActorID, Value: 1}}, Options: options.Index().SetName("actor")},
	})
	if err != nil {
		return storageErr(LogsCollection, "", "create_index", err)
	}
	return nil
}

// Product operations

func (r *Repository) GetProduct(ctx context.Context, id string, scope catalog.StatusScope) (*catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc productDoc
	err := r.products.FindOne(ctx, scopeFilter(bson.M{fieldID: id}, scope)).Decode(&doc)
	if err != nil {
		return nil, mapErr(ProductsCollection, catalog.EntityProduct, id, "get", err)
	}
	return doc.toProduct(), nil
}

// PutProduct replaces the whole document, inserting it if absent. A zero
// CreatedAt or empty Status is stamped before the write.
func (r *Repository) PutProduct(ctx context.Context, product *catalog.Product) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now()
	}
	if product.Status == "" {
		product.Status = catalog.ProductStatusActive
	}

	_, err := r.products.ReplaceOne(ctx, bson.M{fieldID: product.ID}, toProductDoc(product), options.Replace().SetUpsert(true))
	if err != nil {
		return storageErr(ProductsCollection, product.ID, "put", err)
	}
	return nil
}

func (r *Repository) PatchProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error) {
	if patch.IsEmpty() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc productDoc
	err := r.products.FindOneAndUpdate(ctx,
		bson.M{fieldID: id, fieldIsDeleted: false},
		productPatchUpdate(patch),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(ProductsCollection, catalog.EntityProduct, id, "patch", err)
	}
	return doc.toProduct(), nil
}

func (r *Repository) SoftDeleteProduct(ctx context.Context, id string) (*catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc productDoc
	err := r.products.FindOneAndUpdate(ctx,
		bson.M{fieldID: id, fieldIsDeleted: false},
		bson.M{"$set": bson.M{fieldIsDeleted: true, fieldDeletedAt: r.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(ProductsCollection, catalog.EntityProduct, id, "soft_delete", err)
	}
	return doc.toProduct(), nil
}

func (r *Repository) HardDeleteProduct(ctx context.Context, id string) error {
	return r.deleteOne(ctx, r.products, catalog.EntityProduct, id)
}

func (r *Repository) ScanProducts(ctx context.Context, query catalog.ProductQuery) iter.Seq2[*catalog.Product, error] {
	return scan(ctx, r.products, productFilter(query), (*productDoc).toProduct)
}

// Category operations

func (r *Repository) GetCategory(ctx context.Context, id string) (*catalog.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc categoryDoc
	if err := r.categories.FindOne(ctx, bson.M{fieldID: id}).Decode(&doc); err != nil {
		return nil, mapErr(CategoriesCollection, catalog.EntityCategory, id, "get", err)
	}
	return doc.toCategory(), nil
}

func (r *Repository) PutCategory(ctx context.Context, category *catalog.Category) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if category.CreatedAt.IsZero() {
		category.CreatedAt = r.now()
	}
	_, err := r.categories.ReplaceOne(ctx, bson.M{fieldID: category.ID}, toCategoryDoc(category), options.Replace().SetUpsert(true))
	if err != nil {
		return storageErr(CategoriesCollection, category.ID, "put", err)
	}
	return nil
}

func (r *Repository) PatchCategory(ctx context.Context, id string, patch catalog.CategoryPatch) (*catalog.Category, error) {
	if patch.IsEmpty() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc categoryDoc
	err := r.categories.FindOneAndUpdate(ctx,
		bson.M{fieldID: id},
		categoryPatchUpdate(patch),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(CategoriesCollection, catalog.EntityCategory, id, "patch", err)
	}
	return doc.toCategory(), nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	return r.deleteOne(ctx, r.categories, catalog.EntityCategory, id)
}

func (r *Repository) ScanCategories(ctx context.Context, query catalog.CategoryQuery) iter.Seq2[*catalog.Category, error] {
	return scan(ctx, r.categories, categoryFilter(query), (*categoryDoc).toCategory)
}

// User operations

func (r *Repository) GetUser(ctx context.Context, id string) (*catalog.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc userDoc
	if err := r.users.FindOne(ctx, bson.M{fieldID: id}).Decode(&doc); err != nil {
		return nil, mapErr(UsersCollection, catalog.EntityUser, id, "get", err)
	}
	return doc.toUser(), nil
}

// CreateUser inserts user. Uniqueness of the username is enforced by the
// index created in EnsureIndexes.
func (r *Repository) CreateUser(ctx context.Context, user *catalog.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	_, err := r.users.InsertOne(ctx, toUserDoc(user))
	if mongo.IsDuplicateKeyError(err) {
		return &catalog.ConflictError{Entity: catalog.EntityUser, ID: user.Username, Reason: "username already exists"}
	}
	if err != nil {
		return storageErr(UsersCollection, user.ID, "create", err)
	}
	return nil
}

func (r *Repository) PatchUser(ctx context.Context, id string, patch catalog.UserPatch) (*catalog.User, error) {
	if patch.IsEmpty() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc userDoc
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{fieldID: id},
		userPatchUpdate(patch),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(UsersCollection, catalog.EntityUser, id, "patch", err)
	}
	return doc.toUser(), nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	return r.deleteOne(ctx, r.users, catalog.EntityUser, id)
}

func (r *Repository) ScanUsers(ctx context.Context, query catalog.UserQuery) iter.Seq2[*catalog.User, error] {
	return scan(ctx, r.users, userFilter(query), (*userDoc).toUser)
}

// Audit log operations

func (r *Repository) AppendLog(ctx context.Context, entry *catalog.LogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.logs.InsertOne(ctx, toLogDoc(entry)); err != nil {
		return storageErr(LogsCollection, entry.ID, "append", err)
	}
	return nil
}

func (r *Repository) ScanLogs(ctx context.Context, query catalog.LogQuery) iter.Seq2[*catalog.LogEntry, error] {
	return scan(ctx, r.logs, logFilter(query), (*logDoc).toLogEntry,
		options.Find().SetSort(bson.D{{Key: fieldSeq, Value: 1}}))
}

func (r *Repository) deleteOne(ctx context.Context, coll *mongo.Collection, entity catalog.Entity, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := coll.DeleteOne(ctx, bson.M{fieldID: id})
	if err != nil {
		return storageErr(coll.Name(), id, "delete", err)
	}
	if result.DeletedCount == 0 {
		return &catalog.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

// scan runs filter lazily: the query is issued on the first pull and the
// cursor is closed when iteration stops.
func scan[D any, T any](ctx context.Context, coll *mongo.Collection, filter bson.M, convert func(*D) *T, opts ...*options.FindOptions) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		cursor, err := coll.Find(ctx, filter, opts...)
		if err != nil {
			yield(nil, storageErr(coll.Name(), "", "scan", err))
			return
		}
		defer cursor.Close(context.WithoutCancel(ctx))

		for cursor.Next(ctx) {
			var doc D
			if err := cursor.Decode(&doc); err != nil {
				yield(nil, storageErr(coll.Name(), "", "decode", err))
				return
			}
			if !yield(convert(&doc), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, storageErr(coll.Name(), "", "scan", err))
		}
	}
}

func mapErr(collection string, entity catalog.Entity, id, op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &catalog.NotFoundError{Entity: entity, ID: id}
	}
	return storageErr(collection, id, op, err)
}

func storageErr(collection, key, op string, err error) error {
	return &catalog.StorageError{Collection: collection, Key: key, Op: op, Err: err}
}

var _ catalog.Repository = (*Repository)(nil)
