// Package storage defines the durable record-store contract shared by the
// session and user layers, plus the sentinel errors its adapters return.
//
// A RecordStore holds flat records of one kind (for example "UserSession" or
// "User"). Adapters (file, memory, postgres, redis) differ in their medium:
// the file adapter keeps a working set that is explicitly loaded from and
// saved to disk, while the database adapters write through on every call and
// treat Load and Save as no-ops.
package storage
