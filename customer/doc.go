// Package customer defines the Customer record and the Store that persists it.
package customer
