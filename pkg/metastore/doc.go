// Package metastore implements core.Store.
//
// InMemoryStore mirrors table shapes in a map and is used for dry runs and
// tests. SQLStore runs DDL and DML against a connected adapter and treats
// the database catalog as the source of truth.
package metastore
