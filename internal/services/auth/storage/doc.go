// Package storage defines auth persistence contracts shared by the account
// service and the external sign-in flow.
package storage
