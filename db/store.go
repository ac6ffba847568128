package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"blog/models"

	"gorm.io/gorm"
)

// ErrNotFound возвращается, когда ни одна запись не подошла под условие
var ErrNotFound = errors.New("record not found")

// Cond - условие выборки в синтаксисе gorm Where
type Cond struct {
	Query string
	Args  []interface{}
}

func Where(query string, args ...interface{}) Cond {
	return Cond{Query: query, Args: args}
}

// Table - хранилище записей одного вида. Запись сериализуется одним мьютексом на таблицу,
// чтобы конкурентные read-modify-write операции не теряли обновления.
type Table[T any] struct {
	name string
	orm  *gorm.DB
	lock *sync.Mutex
	inTx bool
}

func (t *Table[T]) Name() string {
	return t.name
}

func (t *Table[T]) reader(ctx context.Context) *gorm.DB {
	if t.inTx {
		return t.orm.WithContext(ctx)
	}
	return GetReadOnlyDB(ctx, t.orm)
}

func (t *Table[T]) writer(ctx context.Context) *gorm.DB {
	if t.inTx {
		return t.orm.WithContext(ctx)
	}
	return GetWriteDB(ctx, t.orm)
}

// acquire берет блокировку таблицы; внутри Atomically блокировки уже удерживаются
func (t *Table[T]) acquire() func() {
	if t.lock == nil {
		return func() {}
	}
	t.lock.Lock()
	return t.lock.Unlock
}

func apply(q *gorm.DB, conds []Cond) *gorm.DB {
	for _, c := range conds {
		q = q.Where(c.Query, c.Args...)
	}
	return q
}

func (t *Table[T]) Append(ctx context.Context, rec *T) error {
	defer t.acquire()()
	if err := t.writer(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append to %s: %w", t.name, err)
	}
	return nil
}

// List возвращает записи в порядке добавления
func (t *Table[T]) List(ctx context.Context, conds ...Cond) ([]T, error) {
	rows := []T{}
	err := apply(t.reader(ctx).Model(new(T)), conds).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.name, err)
	}
	return rows, nil
}

// First возвращает самую раннюю подходящую запись или ErrNotFound
func (t *Table[T]) First(ctx context.Context, conds ...Cond) (*T, error) {
	return t.pick(ctx, "created_at ASC", conds)
}

// Latest возвращает самую позднюю подходящую запись или ErrNotFound
func (t *Table[T]) Latest(ctx context.Context, conds ...Cond) (*T, error) {
	return t.pick(ctx, "created_at DESC", conds)
}

func (t *Table[T]) pick(ctx context.Context, order string, conds []Cond) (*T, error) {
	rows := []T{}
	err := apply(t.reader(ctx).Model(new(T)), conds).Order(order).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (t *Table[T]) Count(ctx context.Context, conds ...Cond) (int64, error) {
	var n int64
	if err := apply(t.reader(ctx).Model(new(T)), conds).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return n, nil
}

// UpdateWhere применяет mutate ко всем подходящим записям; ErrNotFound, если таких нет
func (t *Table[T]) UpdateWhere(ctx context.Context, cond Cond, mutate func(*T)) (int, error) {
	defer t.acquire()()

	var updated int
	err := t.writer(ctx).Transaction(func(tx *gorm.DB) error {
		rows := []T{}
		if err := apply(tx.Model(new(T)), []Cond{cond}).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrNotFound
		}
		for i := range rows {
			mutate(&rows[i])
			if err := tx.Save(&rows[i]).Error; err != nil {
				return err
			}
		}
		updated = len(rows)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", t.name, err)
	}
	return updated, nil
}

// DeleteWhere удаляет подходящие записи и возвращает их количество
func (t *Table[T]) DeleteWhere(ctx context.Context, cond Cond) (int64, error) {
	defer t.acquire()()
	result := apply(t.writer(ctx), []Cond{cond}).Delete(new(T))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", t.name, result.Error)
	}
	return result.RowsAffected, nil
}

// Store объединяет таблицы всех сущностей блога
type Store struct {
	orm   *gorm.DB
	locks map[string]*sync.Mutex

	Users          *Table[models.User]
	Posts          *Table[models.Post]
	AccessRequests *Table[models.AccessRequest]
	AccessGrants   *Table[models.AccessGrant]
	Subscriptions  *Table[models.Subscription]
	Comments       *Table[models.Comment]
}

func NewStore(orm *gorm.DB) *Store {
	locks := make(map[string]*sync.Mutex)
	for _, name := range []string{
		models.User{}.TableName(),
		models.Post{}.TableName(),
		models.AccessRequest{}.TableName(),
		models.AccessGrant{}.TableName(),
		models.Subscription{}.TableName(),
		models.Comment{}.TableName(),
	} {
		locks[name] = &sync.Mutex{}
	}
	return bind(orm, locks, false)
}

func newTable[T any](orm *gorm.DB, name string, locks map[string]*sync.Mutex, inTx bool) *Table[T] {
	t := &Table[T]{name: name, orm: orm, inTx: inTx}
	if !inTx {
		t.lock = locks[name]
	}
	return t
}

func bind(orm *gorm.DB, locks map[string]*sync.Mutex, inTx bool) *Store {
	return &Store{
		orm:            orm,
		locks:          locks,
		Users:          newTable[models.User](orm, models.User{}.TableName(), locks, inTx),
		Posts:          newTable[models.Post](orm, models.Post{}.TableName(), locks, inTx),
		AccessRequests: newTable[models.AccessRequest](orm, models.AccessRequest{}.TableName(), locks, inTx),
		AccessGrants:   newTable[models.AccessGrant](orm, models.AccessGrant{}.TableName(), locks, inTx),
		Subscriptions:  newTable[models.Subscription](orm, models.Subscription{}.TableName(), locks, inTx),
		Comments:       newTable[models.Comment](orm, models.Comment{}.TableName(), locks, inTx),
	}
}

// Atomically блокирует перечисленные таблицы (в фиксированном порядке) и выполняет fn
// в одной транзакции. Внутри fn допустимо обращаться только к tx.
func (s *Store) Atomically(ctx context.Context, fn func(tx *Store) error, tables ...string) error {
	names := append([]string(nil), tables...)
	sort.Strings(names)
	var prev string
	for _, name := range names {
		if name == prev {
			continue
		}
		prev = name
		lock, ok := s.locks[name]
		if !ok {
			return fmt.Errorf("unknown table %q", name)
		}
		lock.Lock()
		defer lock.Unlock()
	}

	return GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx, s.locks, true))
	})
}
