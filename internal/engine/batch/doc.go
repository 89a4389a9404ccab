// Package batch splits bulk imports into fixed-size batches.
//
// The processor is generic over the item type. Sequential processing stops at
// the first failing batch; concurrent processing runs batches through an
// errgroup with a concurrency limit and reports progress after each batch.
package batch
