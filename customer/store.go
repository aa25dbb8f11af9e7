/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package customer

import (
	"context"
	"errors"

	"github.com/tomoncle/customerstore/database"
	"github.com/tomoncle/customerstore/repository"
	"github.com/tomoncle/customerstore/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

var errNilCustomer = errors.New("customer must not be nil")

// mutableColumns are rewritten when a customer with a known id is saved.
var mutableColumns = []string{"first_name", "last_name"}

// Store persists customers. Lookups that match nothing return an empty
// result, never an error. Failures are *database.StorageError values.
type Store interface {
	// Save inserts c when its ID is zero and otherwise updates the row with
	// that ID, inserting it if missing. c receives the assigned ID and a copy
	// is returned.
	Save(ctx context.Context, c *Customer) (*Customer, error)
	// SaveAll saves every record in one transaction.
	SaveAll(ctx context.Context, cs ...*Customer) ([]*Customer, error)
	FindAll(ctx context.Context) ([]*Customer, error)
	// FindByID returns (nil, nil) when no customer has the id.
	FindByID(ctx context.Context, id int64) (*Customer, error)
	// FindByLastName returns the customers whose last name equals lastName.
	FindByLastName(ctx context.Context, lastName string) ([]*Customer, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, c *Customer) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[Customer], error)
}

type bunStore struct {
	repo repository.Repository[Customer]
}

// NewStore returns a Store backed by db.
func NewStore(db bun.IDB) Store {
	return &bunStore{repo: repository.NewRepository[Customer](db)}
}

func (s *bunStore) Save(ctx context.Context, c *Customer) (*Customer, error) {
	if c == nil {
		return nil, database.WrapStorageError("customer.save", errNilCustomer)
	}
	if err := save(ctx, s.repo, c); err != nil {
		return nil, database.WrapStorageError("customer.save", err)
	}
	return c.clone(), nil
}

func (s *bunStore) SaveAll(ctx context.Context, cs ...*Customer) ([]*Customer, error) {
	saved := make([]*Customer, 0, len(cs))
	err := s.repo.RunInTx(ctx, func(ctx context.Context, repo repository.Repository[Customer]) error {
		for _, c := range cs {
			if c == nil {
				return errNilCustomer
			}
			if err := save(ctx, repo, c); err != nil {
				return err
			}
			saved = append(saved, c.clone())
		}
		return nil
	})
	if err != nil {
		return nil, database.WrapStorageError("customer.saveAll", err)
	}
	return saved, nil
}

func save(ctx context.Context, repo repository.Repository[Customer], c *Customer) error {
	if c.ID == 0 {
		return repo.Insert(ctx, c)
	}
	return repo.Upsert(ctx, mutableColumns, nil, c)
}

func (s *bunStore) FindAll(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repo.FindAll(ctx, "id ASC")
	if err != nil {
		return nil, database.WrapStorageError("customer.findAll", err)
	}
	return customers, nil
}

func (s *bunStore) FindByID(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.FindOne(ctx, id)
	if err != nil {
		return nil, database.WrapStorageError("customer.findById", err)
	}
	return c, nil
}

func (s *bunStore) FindByLastName(ctx context.Context, lastName string) ([]*Customer, error) {
	customers, err := s.repo.List(ctx, types.NewQueryFilter(s.lastNameClause(), lastName), "id ASC")
	if err != nil {
		return nil, database.WrapStorageError("customer.findByLastName", err)
	}
	return customers, nil
}

// lastNameClause compares case-sensitively on every backend. MySQL's default
// collations are case-insensitive, so the argument is cast to binary there.
func (s *bunStore) lastNameClause() string {
	if s.repo.Dialect().Name() == dialect.MySQL {
		return "last_name = BINARY ?"
	}
	return "last_name = ?"
}

func (s *bunStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, database.WrapStorageError("customer.existsById", err)
	}
	return ok, nil
}

func (s *bunStore) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx, nil)
	if err != nil {
		return 0, database.WrapStorageError("customer.count", err)
	}
	return n, nil
}

func (s *bunStore) Delete(ctx context.Context, c *Customer) error {
	if c == nil {
		return database.WrapStorageError("customer.delete", errNilCustomer)
	}
	return s.DeleteByID(ctx, c.ID)
}

func (s *bunStore) DeleteByID(ctx context.Context, id int64) error {
	return database.WrapStorageError("customer.deleteById", s.repo.Delete(ctx, id))
}

func (s *bunStore) DeleteAll(ctx context.Context) error {
	return database.WrapStorageError("customer.deleteAll", s.repo.DeleteAll(ctx))
}

func (s *bunStore) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[Customer], error) {
	if req == nil {
		req = types.NewDefaultPageRequest(1, 10)
	}
	if len(req.GetOrders()) == 0 {
		req = types.NewPageRequest(req.GetPage(), req.GetPageSize(), req.GetFilter(), []string{"id ASC"})
	}
	page, err := s.repo.Page(ctx, req)
	if err != nil {
		return nil, database.WrapStorageError("customer.page", err)
	}
	return page, nil
}
