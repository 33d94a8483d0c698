package storage

import (
	"context"
	"sync"
)

// Locker はドキュメント名単位の排他制御を提供します。
// Lock が返す関数を呼ぶとロックを解放します（複数回呼んでも安全）。
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

type memoryLock struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker はプロセス内で完結する Locker です。
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*memoryLock
}

// NewMemoryLocker は MemoryLocker を作成します。
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*memoryLock)}
}

// Lock は name のロックを取得するまで待ちます。ctx が終了した場合はエラーを返します。
func (l *MemoryLocker) Lock(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[name]
	if !ok {
		lock = &memoryLock{ch: make(chan struct{}, 1)}
		l.locks[name] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(name, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.release(name, lock)
		})
	}, nil
}

func (l *MemoryLocker) release(name string, lock *memoryLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, name)
	}
}

func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
