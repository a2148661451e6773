// Package store keeps a customer table in pebble and hydrates the rows of one
// by-name group for the engines.
//
// Rows are keyed as
//
//	customer/<warehouse>/<district>/<len(last)><last><id>
//
// with the integers encoded big endian and the last name length as a uvarint,
// so a group is one contiguous key range that no other group shares, and
// ByName is a single bounded iterator scan returning rows in id order.
// Values are gob encoded customers. Optional fields that point at a zero
// value come back as nil, since gob does not transmit zero values.
//
// A Store is safe for concurrent use. Writes are batched and committed
// without fsync unless Options.Sync is set. A Put or Delete that fails part
// way is not rolled back: batches committed before the failure stay written.
package store
