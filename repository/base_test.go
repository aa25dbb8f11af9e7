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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/customerstore/database"
	"github.com/tomoncle/customerstore/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type account struct {
	bun.BaseModel `bun:"table:account,alias:a"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Email string `bun:"email,notnull,unique"`
	Name  string `bun:"name"`
}

func newTestRepo(t *testing.T) Repository[account] {
	t.Helper()

	sqlDB, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*account)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return NewRepository[account](db)
}

func TestInsertAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &account{Email: "jack@ctu.gov", Name: "Jack"}
	require.NoError(t, repo.Insert(ctx, a))
	require.NotZero(t, a.ID)

	found, err := repo.FindOne(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "jack@ctu.gov", found.Email)

	missing, err := repo.FindOne(ctx, a.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx,
		&account{Email: "a@x", Name: "A"},
		&account{Email: "b@x", Name: "B"},
		&account{Email: "c@x", Name: "C"},
	))

	all, err := repo.FindAll(ctx, "id DESC")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].Name)

	n, err := repo.Count(ctx, types.NewQueryFilter("name <> ?", "B"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	listed, err := repo.Query(ctx, "email = ?", "b@x")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "B", listed[0].Name)
}

func TestUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &account{Email: "jack@ctu.gov", Name: "Jack"}
	require.NoError(t, repo.Insert(ctx, a))

	require.NoError(t, repo.Upsert(ctx, []string{"name"}, nil, &account{ID: a.ID, Email: "jack@ctu.gov", Name: "Jack Bauer"}))
	require.NoError(t, repo.Upsert(ctx, []string{"name"}, []string{"email"}, &account{ID: 50, Email: "kim@ctu.gov", Name: "Kim"}))

	found, err := repo.FindOne(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jack Bauer", found.Name)

	exists, err := repo.Exists(ctx, 50)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Error(t, repo.Upsert(ctx, nil, nil, a))
}

func TestUpdateReportsMatchedRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &account{Email: "jack@ctu.gov", Name: "Jack"}
	require.NoError(t, repo.Insert(ctx, a))

	a.Name = "Jack Bauer"
	n, err := repo.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Update(ctx, &account{ID: 404, Email: "nobody@x"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunInTxRollsBackOnConstraint(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.RunInTx(ctx, func(ctx context.Context, tx Repository[account]) error {
		if err := tx.Insert(ctx, &account{Email: "dup@x", Name: "first"}); err != nil {
			return err
		}
		return tx.Insert(ctx, &account{Email: "dup@x", Name: "second"})
	})
	require.Error(t, err)
	assert.True(t, errors.Is(database.WrapStorageError("insert", err), database.ErrConstraint))

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteAndPage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Insert(ctx, &account{Email: name + "@x", Name: name}))
	}

	page, err := repo.Page(ctx, types.NewPageRequestWithOrders(2, 3, []string{"id ASC"}))
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "d", page.Items[0].Name)

	require.NoError(t, repo.Delete(ctx, page.Items[0].ID))
	require.NoError(t, repo.DeleteAll(ctx))

	empty, err := repo.Page(ctx, types.NewDefaultPageRequest(1, 10))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Items)
}
