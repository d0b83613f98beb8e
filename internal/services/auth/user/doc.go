// Package user defines the account model shared by sign-in and reservations.
//
// Emails are the stable human-facing identifier: they are normalized before
// persistence so credential and provider sign-ins resolve to one account.
package user
