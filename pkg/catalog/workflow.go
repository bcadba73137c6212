package catalog

import (
	"context"
)

// ImageWorkflow sequences image storage around product mutations. Uploads
// happen before the metadata write, removals after it commits.
type ImageWorkflow struct {
	svc   Service
	blobs *BlobManager
}

// NewImageWorkflow creates a workflow over a catalog service and blob manager.
func NewImageWorkflow(svc Service, blobs *BlobManager) *ImageWorkflow {
	return &ImageWorkflow{svc: svc, blobs: blobs}
}

// CreateProductWithImage uploads the image and creates the product pointing
// at it. A failed create leaves the uploaded image as an orphan.
func (w *ImageWorkflow) CreateProductWithImage(ctx context.Context, req CreateProductRequest, image ImageUpload) (*Product, error) {
	ref, err := w.blobs.Store(ctx, image)
	if err != nil {
		return nil, err
	}
	req.Image = ref
	return w.svc.CreateProduct(ctx, req)
}

// UpdateProductWithImage replaces a product's image. The previous image is
// removed once, and only after the patch has committed; if the patch fails the
// new upload is orphaned and the previous image stays referenced. Patches
// that fail field validation are rejected before anything is uploaded.
func (w *ImageWorkflow) UpdateProductWithImage(ctx context.Context, req UpdateProductRequest, image ImageUpload) (*Product, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	if _, err := normalizeProductPatch(req.Patch); err != nil {
		return nil, err
	}

	current, err := w.svc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	oldKey := current.Image.Key

	ref, err := w.blobs.Store(ctx, image)
	if err != nil {
		return nil, err
	}
	req.Patch.Image = &ref

	updated, err := w.svc.UpdateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	if oldKey != "" && oldKey != ref.Key {
		w.blobs.Remove(ctx, oldKey)
	}
	return updated, nil
}

// DeleteProductWithImage soft-deletes a product and then removes its image.
func (w *ImageWorkflow) DeleteProductWithImage(ctx context.Context, req DeleteProductRequest) (*Product, error) {
	deleted, err := w.svc.DeleteProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	w.blobs.Remove(ctx, deleted.Image.Key)
	return deleted, nil
}

// PurgeProductWithImage hard-deletes a product in any status and then removes
// its image.
func (w *ImageWorkflow) PurgeProductWithImage(ctx context.Context, req DeleteProductRequest) (*Product, error) {
	purged, err := w.svc.PurgeProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	w.blobs.Remove(ctx, purged.Image.Key)
	return purged, nil
}
