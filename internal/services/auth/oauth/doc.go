// Package oauth runs external provider sign-in (Google, GitHub) with PKCE
// and hands verified profiles to the account service.
package oauth
