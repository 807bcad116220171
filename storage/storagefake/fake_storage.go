package storagefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-hr-session/storage"
)

var _ storage.Storage = (*FakeStorage)(nil)

type FakeStorage struct {
	values map[string]string
	lock   sync.RWMutex

	// Err, when set, is returned by every call.
	Err error

	// FailFunc, when set, is consulted before each call with the operation
	// name ("get", "set", "clear") and key. A non-nil result is returned.
	FailFunc func(op, key string) error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		values: make(map[string]string),
	}
}

func (fs *FakeStorage) Get(_ context.Context, key string) (string, bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if err := fs.fail("get", key); err != nil {
		return "", false, err
	}
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FakeStorage) Set(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := fs.fail("set", key); err != nil {
		return err
	}
	fs.values[key] = value
	return nil
}

func (fs *FakeStorage) Clear(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := fs.fail("clear", key); err != nil {
		return err
	}
	delete(fs.values, key)
	return nil
}

func (fs *FakeStorage) fail(op, key string) error {
	if fs.Err != nil {
		return fs.Err
	}
	if fs.FailFunc != nil {
		return fs.FailFunc(op, key)
	}
	return nil
}

// Len reports how many keys are held.
func (fs *FakeStorage) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return len(fs.values)
}
