package types

// ItemState is the lifecycle state of a single news item inside a batch run.
type ItemState string

const (
	ItemStatePending         ItemState = "pending"
	ItemStateImageResolved   ItemState = "image_resolved"
	ItemStateMissingImage    ItemState = "missing_image"
	ItemStateSkippedExisting ItemState = "skipped_existing"
	ItemStateBuilding        ItemState = "building"
	ItemStateSuccess         ItemState = "success"
	ItemStateFailed          ItemState = "failed"
	ItemStateCatalogError    ItemState = "catalog_error"
)

// Terminal reports whether the state ends the item's lifecycle.
func (s ItemState) Terminal() bool {
	switch s {
	case ItemStateMissingImage, ItemStateSkippedExisting, ItemStateSuccess, ItemStateFailed, ItemStateCatalogError:
		return true
	}
	return false
}

// Succeeded reports whether a terminal state is recorded as a success.
func (s ItemState) Succeeded() bool {
	return s == ItemStateSuccess || s == ItemStateSkippedExisting
}
