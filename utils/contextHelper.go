package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/fieldsales_backend/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyEmpCode       = appctx.ContextKeyEmpCode
	ContextKeyEmpName       = appctx.ContextKeyEmpName
	ContextKeyRole          = appctx.ContextKeyRole
	ContextKeyRegion        = appctx.ContextKeyRegion
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyIsAdmin       = appctx.ContextKeyIsAdmin
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetEmpCodeFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyEmpCode)
}

func GetEmpNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyEmpName)
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRole)
}

func GetRegionFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRegion)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetEmpCodeInContext(ctx context.Context, empCode string) context.Context {
	return appctx.Set(ctx, ContextKeyEmpCode, empCode)
}

func SetEmpNameInContext(ctx context.Context, empName string) context.Context {
	return appctx.Set(ctx, ContextKeyEmpName, empName)
}

func SetRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyRole, role)
}

func SetRegionInContext(ctx context.Context, region string) context.Context {
	return appctx.Set(ctx, ContextKeyRegion, region)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}
