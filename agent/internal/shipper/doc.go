// Package shipper delivers analysed gas samples to gaswatch-server.
//
// Samples are buffered in a bounded channel; when the server is
// unreachable the shipper retries with truncated exponential backoff
// and evicts the oldest samples once the buffer fills. Rejections with
// a 4xx status are treated as permanent and the sample is discarded.
package shipper
