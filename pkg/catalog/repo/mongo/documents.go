package mongo

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

// Persisted layout. Product status is stored as isDeleted + deletedAt.

type productDoc struct {
	ID         string     `bson:"_id"`
	Name       string     `bson:"name"`
	Price      float64    `bson:"price"`
	Quantity   int        `bson:"quantity"`
	CategoryID string     `bson:"categoryId,omitempty"`
	ImageURL   string     `bson:"imageUrl,omitempty"`
	ImageKey   string     `bson:"imageKey,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt"`
	IsDeleted  bool       `bson:"isDeleted"`
	DeletedAt  *time.Time `bson:"deletedAt,omitempty"`
}

type categoryDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"passwordHash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
}

type logDoc struct {
	ID        string    `bson:"_id"`
	SubjectID string    `bson:"subjectId"`
	Entity    string    `bson:"entity"`
	Action    string    `bson:"action"`
	ActorID   string    `bson:"actorId"`
	Timestamp time.Time `bson:"timestamp"`
	// Seq orders entries by append; ObjectIDs increase within a process.
	Seq primitive.ObjectID `bson:"seq"`
}

const (
	fieldID        = "_id"
	fieldIsDeleted = "isDeleted"
	fieldDeletedAt = "deletedAt"
	fieldUsername  = "username"
	fieldSubjectID = "subjectId"
	fieldActorID   = "actorId"
	fieldEntity    = "entity"
	fieldSeq       = "seq"
)

func toProductDoc(p *catalog.Product) *productDoc {
	return &productDoc{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Quantity:   p.Quantity,
		CategoryID: p.CategoryID,
		ImageURL:   p.Image.URL,
		ImageKey:   p.Image.Key,
		CreatedAt:  p.CreatedAt,
		IsDeleted:  p.IsDeleted(),
		DeletedAt:  p.DeletedAt,
	}
}

func (d *productDoc) toProduct() *catalog.Product {
	status := catalog.ProductStatusActive
	if d.IsDeleted {
		status = catalog.ProductStatusDeleted
	}
	return &catalog.Product{
		ID:         d.ID,
		Name:       d.Name,
		Price:      d.Price,
		Quantity:   d.Quantity,
		CategoryID: d.CategoryID,
		Image:      catalog.ImageRef{URL: d.ImageURL, Key: d.ImageKey},
		Status:     status,
		CreatedAt:  d.CreatedAt.UTC(),
		DeletedAt:  utcPtr(d.DeletedAt),
	}
}

func toCategoryDoc(c *catalog.Category) *categoryDoc {
	return &categoryDoc{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

func (d *categoryDoc) toCategory() *catalog.Category {
	return &catalog.Category{ID: d.ID, Name: d.Name, Description: d.Description, CreatedAt: d.CreatedAt.UTC()}
}

func toUserDoc(u *catalog.User) *userDoc {
	return &userDoc{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, Role: string(u.Role), CreatedAt: u.CreatedAt}
}

func (d *userDoc) toUser() *catalog.User {
	return &catalog.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         catalog.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func toLogDoc(e *catalog.LogEntry) *logDoc {
	return &logDoc{
		ID:        e.ID,
		SubjectID: e.SubjectID,
		Entity:    string(e.Entity),
		Action:    string(e.Action),
		ActorID:   e.ActorID,
		Timestamp: e.Timestamp,
		Seq:       primitive.NewObjectID(),
	}
}

func (d *logDoc) toLogEntry() *catalog.LogEntry {
	return &catalog.LogEntry{
		ID:        d.ID,
		SubjectID: d.SubjectID,
		Entity:    catalog.Entity(d.Entity),
		Action:    catalog.Action(d.Action),
		ActorID:   d.ActorID,
		Timestamp: d.Timestamp.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Query translators

// scopeFilter adds the soft-delete condition for scope to f.
func scopeFilter(f bson.M, scope catalog.StatusScope) bson.M {
	switch scope {
	case catalog.ScopeActive:
		f[fieldIsDeleted] = false
	case catalog.ScopeDeleted:
		f[fieldIsDeleted] = true
	}
	return f
}

// productFilter translates a ProductQuery into a server-side filter.
func productFilter(q catalog.ProductQuery) bson.M {
	f := scopeFilter(bson.M{}, q.Scope)
	if q.CategoryID != "" {
		f[catalog.FieldCategoryID] = q.CategoryID
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		f[catalog.FieldPrice] = price
	}
	if q.NameContains != "" {
		f[catalog.FieldName] = bson.M{"$regex": regexp.QuoteMeta(q.NameContains), "$options": "i"}
	}
	return f
}

func categoryFilter(q catalog.CategoryQuery) bson.M {
	f := bson.M{}
	if q.Name != "" {
		f[catalog.FieldName] = q.Name
	}
	return f
}

func userFilter(q catalog.UserQuery) bson.M {
	f := bson.M{}
	if q.Username != "" {
		f[fieldUsername] = q.Username
	}
	if q.Role != "" {
		f[catalog.FieldRole] = string(q.Role)
	}
	return f
}

func logFilter(q catalog.LogQuery) bson.M {
	f := bson.M{}
	if q.SubjectID != "" {
		f[fieldSubjectID] = q.SubjectID
	}
	if q.ActorID != "" {
		f[fieldActorID] = q.ActorID
	}
	if q.Entity != "" {
		f[fieldEntity] = string(q.Entity)
	}
	return f
}

// Patch translators. Empty strings for optional fields become $unset so the
// stored document matches what a fresh write would produce.

func productPatchUpdate(p catalog.ProductPatch) bson.M {
	set := bson.M{}
	unset := bson.M{}
	if p.Name != nil {
		set[catalog.FieldName] = *p.Name
	}
	if p.Price != nil {
		set[catalog.FieldPrice] = *p.Price
	}
	if p.Quantity != nil {
		set[catalog.FieldQuantity] = *p.Quantity
	}
	if p.CategoryID != nil {
		setOrUnset(set, unset, catalog.FieldCategoryID, *p.CategoryID)
	}
	if p.Image != nil {
		setOrUnset(set, unset, catalog.FieldImageURL, p.Image.URL)
		setOrUnset(set, unset, catalog.FieldImageKey, p.Image.Key)
	}
	return updateDoc(set, unset)
}

func categoryPatchUpdate(p catalog.CategoryPatch) bson.M {
	set := bson.M{}
	unset := bson.M{}
	if p.Name != nil {
		set[catalog.FieldName] = *p.Name
	}
	if p.Description != nil {
		setOrUnset(set, unset, catalog.FieldDescription, *p.Description)
	}
	return updateDoc(set, unset)
}

func userPatchUpdate(p catalog.UserPatch) bson.M {
	set := bson.M{}
	if p.PasswordHash != nil {
		set[catalog.FieldPassword] = *p.PasswordHash
	}
	if p.Role != nil {
		set[catalog.FieldRole] = string(*p.Role)
	}
	return updateDoc(set, bson.M{})
}

func setOrUnset(set, unset bson.M, field, value string) {
	if value == "" {
		unset[field] = ""
		return
	}
	set[field] = value
}

func updateDoc(set, unset bson.M) bson.M {
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
