// Package user provides the user record model and its repository.
//
// Users are persisted as storage.Record values of kind "User" through any
// storage.RecordStore. Passwords are stored as bcrypt hashes and never
// appear in the public JSON view.
package user
