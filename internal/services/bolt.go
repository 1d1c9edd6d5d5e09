package services

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// BoltStore holds the client's one piece of durable state: the bearer credential issued by the
// remote service. The token lives in a BoltDB file under a fixed bucket and key so a restart of
// the UI keeps the user signed in until the service expires the credential.
type BoltStore struct {
	db *bolt.DB
}

var (
	authBucket = []byte("auth")
	tokenKey   = []byte("access_token")
)

// NewBoltStore creates a BoltStore backed by the file at path. The database file is created with
// 0600 permissions if it doesn't exist, and the auth bucket is initialized up front.
func NewBoltStore(path string) (BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltStore{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(authBucket)
		return err
	})

	return BoltStore{db: db}, err
}

// Token returns the stored bearer credential, or an empty string when none is stored.
func (b BoltStore) Token() (string, error) {
	var token string
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(authBucket)
		if bkt == nil {
			return nil
		}
		token = string(bkt.Get(tokenKey))
		return nil
	})
	return token, err
}

// SetToken stores the bearer credential, replacing any previous one.
func (b BoltStore) SetToken(token string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(authBucket)
		if err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return bkt.Put(tokenKey, []byte(token))
	})
}

// ClearToken discards the stored credential. Clearing an empty store is a no-op.
func (b BoltStore) ClearToken() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(authBucket)
		if bkt == nil {
			return nil
		}
		return bkt.Delete(tokenKey)
	})
}

// Close releases the underlying database file.
func (b BoltStore) Close() error {
	return b.db.Close()
}
