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

// Package bootstrap seeds the customer table and prints what the store finds.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/customerstore/customer"
)

const (
	allRule    = "-------------------------------"
	byIDRule   = "--------------------------------"
	bauersRule = "--------------------------------------------"
)

// Report holds the records the run logged.
type Report struct {
	All    []*customer.Customer
	ByID   *customer.Customer
	Bauers []*customer.Customer
}

// SampleCustomers returns the five unsaved seed records in insertion order.
func SampleCustomers() []*customer.Customer {
	return []*customer.Customer{
		customer.New("Jack", "Bauer"),
		customer.New("Chloe", "O'Brian"),
		customer.New("Kim", "Bauer"),
		customer.New("David", "Palmer"),
		customer.New("Michelle", "Dessler"),
	}
}

// Run saves the sample customers, then logs every customer, the customer with
// id 1 and the customers named Bauer. The first store error stops the run.
func Run(ctx context.Context, store customer.Store, log logrus.FieldLogger) (*Report, error) {
	for _, c := range SampleCustomers() {
		if _, err := store.Save(ctx, c); err != nil {
			return nil, fmt.Errorf("save %s %s: %w", c.FirstName, c.LastName, err)
		}
	}

	report := &Report{}

	all, err := store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("findAll: %w", err)
	}
	report.All = all
	log.Info("Customers found with findAll():")
	log.Info(allRule)
	for _, c := range all {
		log.Info(c.String())
	}
	log.Info("")

	byID, err := store.FindByID(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("findById: %w", err)
	}
	if byID != nil {
		report.ByID = byID
		log.Info("Customer found with findById(1L):")
		log.Info(byIDRule)
		log.Info(byID.String())
		log.Info("")
	}

	bauers, err := store.FindByLastName(ctx, "Bauer")
	if err != nil {
		return nil, fmt.Errorf("findByLastName: %w", err)
	}
	report.Bauers = bauers
	log.Info("Customer found with findByLastName('Bauer'):")
	log.Info(bauersRule)
	for _, c := range bauers {
		log.Info(c.String())
	}
	log.Info("")

	return report, nil
}
