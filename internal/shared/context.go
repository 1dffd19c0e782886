package shared

import "context"

type orgContextKey struct{}

type actorContextKey struct{}

// ContextWithOrg stores the acting organisation id in context.
func ContextWithOrg(ctx context.Context, orgID int64) context.Context {
	return context.WithValue(ctx, orgContextKey{}, orgID)
}

// OrgFromContext extracts the organisation id from context, zero when absent.
func OrgFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(orgContextKey{}).(int64)
	return id
}

// ContextWithActor stores the acting user id in context.
func ContextWithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext extracts the acting user id from context, zero when absent.
func ActorFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(actorContextKey{}).(int64)
	return id
}
