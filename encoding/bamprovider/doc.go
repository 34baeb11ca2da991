// Package bamprovider provides utilities for reading the records of an
// indexed BAM file that overlap genomic intervals, from many goroutines at
// once.
//
// The Provider is an interface for fetching records by region.
package bamprovider
