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
	"fmt"

	"github.com/tomoncle/customerstore/database"
	"github.com/uptrace/bun"
)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Customer)(nil), 10,
		database.Index{Name: "idx_customer_last_name", Columns: []string{"last_name"}},
	))
}

// Customer is a person record. ID is zero until the record has been saved.
type Customer struct {
	bun.BaseModel `bun:"table:customer,alias:c"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	FirstName string `bun:"first_name,notnull" json:"firstName"`
	LastName  string `bun:"last_name,notnull" json:"lastName"`
}

// New returns an unsaved customer.
func New(firstName, lastName string) *Customer {
	return &Customer{FirstName: firstName, LastName: lastName}
}

func (c *Customer) String() string {
	return fmt.Sprintf("Customer{id=%d, firstName='%s', lastName='%s'}", c.ID, c.FirstName, c.LastName)
}

func (c *Customer) clone() *Customer {
	cp := *c
	return &cp
}
