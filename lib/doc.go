// Package lib provide small helpers used by the allocator and the
// collector: bitmaps for cell bookkeeping and running statistics for
// collection cycles. They shall not depend on anything other than the
// standard library.
package lib
