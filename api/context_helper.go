package api

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type contextKey string

const userIDKey contextKey = "authUserID"

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// RequestWithUserID returns a shallow copy of r carrying the authenticated
// user's id, set by the auth middleware once the token is validated.
func RequestWithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// UserIDFromRequest extracts the authenticated user's object id from the
// request context. The bool is false when the middleware did not run or the
// stored id is not a valid object id.
func UserIDFromRequest(r *http.Request) (primitive.ObjectID, bool) {
	raw, _ := r.Context().Value(userIDKey).(string)
	if raw == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
