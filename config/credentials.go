package config

import (
	"context"

	"github.com/tdambrin/sf-push/domain"
	"github.com/tdambrin/sf-push/errors"
)

// ValueResolver turns a configured value into the value to use.
// *secrets.Manager implements it.
type ValueResolver interface {
	ResolveValue(ctx context.Context, value string) (string, error)
}

// ResolvePasswords returns a copy of accounts whose passwords went through
// resolver. Literal passwords come back unchanged.
func ResolvePasswords(
	ctx context.Context,
	resolver ValueResolver,
	accounts []domain.SyncAccount,
) ([]domain.SyncAccount, error) {
	resolved := make([]domain.SyncAccount, len(accounts))
	for i, acc := range accounts {
		password, err := resolver.ResolveValue(ctx, acc.Password)
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
				"failed to resolve account password",
				map[string]interface{}{"account": domain.AccountLabel(i)})
		}
		acc.Password = password
		resolved[i] = acc
	}
	return resolved, nil
}
