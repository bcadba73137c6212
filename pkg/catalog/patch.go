package catalog

// Field names of the persisted layout. Patches and query translators refer to
// fields only through these constants.
const (
	FieldName        = "name"
	FieldPrice       = "price"
	FieldQuantity    = "quantity"
	FieldCategoryID  = "categoryId"
	FieldImageURL    = "imageUrl"
	FieldImageKey    = "imageKey"
	FieldDescription = "description"
	FieldPassword    = "passwordHash"
	FieldRole        = "role"
)

// ProductPatch is a partial update of a product. Nil fields are left
// unchanged. A non-nil CategoryID pointing at "" clears the reference.
// Identifier, creation time and status are not patchable.
type ProductPatch struct {
	Name       *string
	Price      *float64
	Quantity   *int
	CategoryID *string
	Image      *ImageRef
}

// IsEmpty reports whether the patch names no fields.
func (p ProductPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the persisted field names the patch touches, in a stable order.
func (p ProductPatch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, FieldName)
	}
	if p.Price != nil {
		fields = append(fields, FieldPrice)
	}
	if p.Quantity != nil {
		fields = append(fields, FieldQuantity)
	}
	if p.CategoryID != nil {
		fields = append(fields, FieldCategoryID)
	}
	if p.Image != nil {
		fields = append(fields, FieldImageURL, FieldImageKey)
	}
	return fields
}

// Apply writes the patched fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Quantity != nil {
		product.Quantity = *p.Quantity
	}
	if p.CategoryID != nil {
		product.CategoryID = *p.CategoryID
	}
	if p.Image != nil {
		product.Image = *p.Image
	}
}

// CategoryPatch is a partial update of a category.
type CategoryPatch struct {
	Name        *string
	Description *string
}

// IsEmpty reports whether the patch names no fields.
func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil
}

// Apply writes the patched fields onto category.
func (p CategoryPatch) Apply(category *Category) {
	if p.Name != nil {
		category.Name = *p.Name
	}
	if p.Description != nil {
		category.Description = *p.Description
	}
}

// UserPatch is a partial update of a user. Username is immutable.
type UserPatch struct {
	PasswordHash *string
	Role         *Role
}

// IsEmpty reports whether the patch names no fields.
func (p UserPatch) IsEmpty() bool {
	return p.PasswordHash == nil && p.Role == nil
}

// Apply writes the patched fields onto user.
func (p UserPatch) Apply(user *User) {
	if p.PasswordHash != nil {
		user.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		user.Role = *p.Role
	}
}
