// Package diskhash serialises bucket-chained hash tables into a byte layout
// that can be searched in place with random-access reads.
//
// A region is laid out as
//
//	Region    := NumBuckets:u32 BucketRec{NumBuckets} Element...
//	BucketRec := ChainLen:u32 FirstElement:u32
//	Element   := NextElement:u32 Payload
//
// All integers are big-endian and all offsets are absolute file offsets.
// Elements are stored bucket by bucket in chain order. An empty bucket has
// ChainLen 0 and FirstElement 0, and the last element of a chain has
// NextElement 0; offset 0 always belongs to the enclosing file header, so 0
// never names an element.
//
// Encoding runs in two passes: RegionSize computes the exact size of a
// region, including nested regions inside element payloads, and WriteRegion
// then emits the region strictly sequentially through a Cursor.
package diskhash
