package auth

import (
	"context"

	"github.com/mind-engage/quizbank/internal/rbac"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Role    string
}

type subjectKey struct{}

// WithPrincipal stores the caller's subject and hands its role to rbac.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, subjectKey{}, p.Subject)
	return rbac.WithRole(ctx, p.Role)
}

func PrincipalFromContext(ctx context.Context) Principal {
	return Principal{Subject: SubjectFromContext(ctx), Role: rbac.RoleFromContext(ctx)}
}

func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}
