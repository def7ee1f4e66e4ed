package content

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
)

var errPageNotCached = badger.ErrKeyNotFound

// unit pages change rarely; a day keeps re-runs cheap without going
// stale mid-iteration
const pageLifetime = int64((time.Hour / time.Second) * 24)

type cachedPage struct {
	Contents  []byte
	ExpiresAt int64
}

type pageCache struct {
	db *badger.DB
}

func (c *pageCache) key(pageUrl string) (string, error) {
	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return "", err
	}
	return purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	), nil
}

func (c *pageCache) get(ctx context.Context, pageUrl string) ([]byte, error) {
	key, err := c.key(pageUrl)
	if err != nil {
		return nil, err
	}

	tx := c.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	var cached cachedPage
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		return nil, err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		del := c.db.NewTransaction(true)
		defer del.Commit()
		if err := del.Delete([]byte(key)); err != nil {
			return nil, errPageNotCached
		}
		return nil, errPageNotCached
	}
	return cached.Contents, nil
}

func (c *pageCache) set(ctx context.Context, pageUrl string, contents []byte) error {
	key, err := c.key(pageUrl)
	if err != nil {
		return err
	}

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(cachedPage{
		Contents:  contents,
		ExpiresAt: time.Now().Unix() + pageLifetime,
	})
	if err != nil {
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()
	return tx.Set([]byte(key), serialized.Bytes())
}
