// Package staging holds the ordered list of local files picked for upload.
//
// A List accepts one media kind (images or videos). Files are sniffed by
// content, then filtered by kind and by the per-file size limit. If a batch
// pushes the aggregate size over the total limit, exactly that batch is
// rolled back and earlier batches stay staged.
package staging
