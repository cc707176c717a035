package auth

import "github.com/dmitrijs2005/accounts/internal/common"

// Authorize allows an action on target only when the token subject is
// target itself.
func Authorize(claims *Claims, target string) error {
	if claims == nil || claims.Username == "" || claims.Username != target {
		return common.ErrNotAuthorized
	}
	return nil
}
