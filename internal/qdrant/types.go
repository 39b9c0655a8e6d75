// Package qdrant implements the retrieval backend on top of the Qdrant Go client.
package qdrant

// Collection layout shared with the indexer.
const (
	// Payload fields.
	FieldDocID      = "doc_id"
	FieldTitle      = "title"
	FieldAnnotation = "annotation"
	FieldContent    = "content"

	// SparseVector is the named sparse vector holding the content terms as
	// produced by the standard analyzer at index time. Query text may be
	// analyzed differently; only matching terms contribute.
	SparseVector = "content"
)

// resultPayload lists the payload fields returned with each hit.
var resultPayload = []string{FieldDocID, FieldTitle, FieldAnnotation}

// CollectionInfo contains information about a collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string

	// PointsCount is the total number of points.
	PointsCount uint64

	// Status is the collection health status.
	Status string

	// SegmentsCount is the number of segments.
	SegmentsCount uint64
}
